package transfer

import "time"

const (
	BlueskyPostType       = "app.bsky.feed.post"
	BlueskyImagesEmbed    = "app.bsky.embed.images"
	BlueskyVideoEmbed     = "app.bsky.embed.video"
	BlueskyTagFeature     = "app.bsky.richtext.facet#tag"
	BlueskyPostCollection = "app.bsky.feed.post"
)

type BlueskySessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type BlueskySession struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

type BlueskyBlobRef struct {
	Type     string `json:"$type"`
	Ref      any    `json:"ref"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type BlueskyUploadBlobResponse struct {
	Blob BlueskyBlobRef `json:"blob"`
}

type BlueskyByteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

type BlueskyFacetFeature struct {
	Type string `json:"$type"`
	Tag  string `json:"tag"`
}

// BlueskyFacet marks a hashtag span in the post text using UTF-8 byte
// offsets.
type BlueskyFacet struct {
	Index    BlueskyByteSlice      `json:"index"`
	Features []BlueskyFacetFeature `json:"features"`
}

type BlueskyImage struct {
	Alt   string         `json:"alt"`
	Image BlueskyBlobRef `json:"image"`
}

type BlueskyEmbed struct {
	Type   string          `json:"$type"`
	Images []BlueskyImage  `json:"images,omitempty"`
	Video  *BlueskyBlobRef `json:"video,omitempty"`
	Alt    string          `json:"alt,omitempty"`
}

type BlueskyPostRecord struct {
	Type      string         `json:"$type"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"createdAt"`
	Langs     []string       `json:"langs,omitempty"`
	Facets    []BlueskyFacet `json:"facets,omitempty"`
	Embed     *BlueskyEmbed  `json:"embed,omitempty"`
}

type BlueskyCreateRecordRequest struct {
	Repo       string            `json:"repo"`
	Collection string            `json:"collection"`
	Record     BlueskyPostRecord `json:"record"`
}

// BlueskyRecordResponse identifies a created record.
type BlueskyRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

func (r BlueskyRecordResponse) RecordURI() string { return r.URI }
func (r BlueskyRecordResponse) RecordCID() string { return r.CID }

type BlueskyErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
