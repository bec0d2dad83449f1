package transfer

import "fmt"

type InstagramAccountResponse struct {
	InstagramBusinessAccount *struct {
		ID string `json:"id"`
	} `json:"instagram_business_account"`
	ID string `json:"id"`
}

type InstagramContainerRequest struct {
	MediaType    string `json:"media_type,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	VideoURL     string `json:"video_url,omitempty"`
	Caption      string `json:"caption"`
	IsMadeWithAI bool   `json:"is_made_with_ai"`
	AccessToken  string `json:"access_token"`
}

type InstagramPublishRequest struct {
	CreationID  string `json:"creation_id"`
	AccessToken string `json:"access_token"`
}

// InstagramIDResponse is returned by container creation and media_publish.
type InstagramIDResponse struct {
	ID    string      `json:"id"`
	Error *GraphError `json:"error,omitempty"`
}

type InstagramStatusResponse struct {
	StatusCode string      `json:"status_code"`
	ID         string      `json:"id"`
	Error      *GraphError `json:"error,omitempty"`
}

// GraphError is the error envelope shared by the Facebook and Threads graph
// APIs.
type GraphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	IsTransient  bool   `json:"is_transient"`
	FbtraceID    string `json:"fbtrace_id"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api error %d (%s): %s", e.Code, e.Type, e.Message)
}
