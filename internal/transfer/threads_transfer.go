package transfer

type ThreadsUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ThreadsContainerRequest struct {
	MediaType    string `json:"media_type"`
	ImageURL     string `json:"image_url,omitempty"`
	VideoURL     string `json:"video_url,omitempty"`
	Text         string `json:"text"`
	IsMadeWithAI bool   `json:"is_made_with_ai"`
	AccessToken  string `json:"access_token"`
}

type ThreadsPublishRequest struct {
	CreationID  string `json:"creation_id"`
	AccessToken string `json:"access_token"`
}

type ThreadsIDResponse struct {
	ID    string      `json:"id"`
	Error *GraphError `json:"error,omitempty"`
}

// ThreadsStatusResponse omits status once a container is ready on some
// accounts, so an empty Status means finished.
type ThreadsStatusResponse struct {
	ID           string      `json:"id"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Error        *GraphError `json:"error,omitempty"`
}
