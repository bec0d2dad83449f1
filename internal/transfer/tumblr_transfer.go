package transfer

type TumblrMeta struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

type TumblrPostResponse struct {
	Meta     TumblrMeta `json:"meta"`
	Response struct {
		ID          any    `json:"id"`
		IDString    string `json:"id_string"`
		State       string `json:"state"`
		DisplayText string `json:"display_text"`
	} `json:"response"`
	Errors []struct {
		Title  string `json:"title"`
		Code   int    `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}
