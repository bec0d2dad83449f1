package models

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTiktok    Platform = "tiktok"
	PlatformTumblr    Platform = "tumblr"
	PlatformBluesky   Platform = "bluesky"
	PlatformThreads   Platform = "threads"
)

// Platforms is the fixed publish order.
var Platforms = []Platform{
	PlatformInstagram,
	PlatformTiktok,
	PlatformTumblr,
	PlatformBluesky,
	PlatformThreads,
}

// MaxHashtags caps the hashtags shared across platforms.
const MaxHashtags = 3

// ContentItem is one queued media asset.
type ContentItem struct {
	ID                 int64               `json:"id"`
	Filename           string              `json:"filename"`
	URL                string              `json:"url"`
	MediaType          MediaType           `json:"media_type"`
	LocalPath          string              `json:"local_path,omitempty"`
	AddedDate          Timestamp           `json:"added_date"`
	Posted             bool                `json:"posted"`
	PostedDate         *Timestamp          `json:"posted_date"`
	PostingResults     map[string]any      `json:"posting_results"`
	Kaomoji            string              `json:"kaomoji"`
	FunFact            string              `json:"fun_fact"`
	FunFactFollowup    string              `json:"fun_fact_followup"`
	Hashtags           []string            `json:"hashtags"`
	PlatformCaptions   map[Platform]string `json:"platform_captions"`
	EngagementHookUsed bool                `json:"engagement_hook_used"`
}

func (c *ContentItem) IsVideo() bool {
	return c.MediaType == MediaTypeVideo
}

// MediaLinkRecord is a permanent ledger entry for an uploaded asset.
type MediaLinkRecord struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	MediaType  MediaType `json:"media_type"`
	UploadDate Timestamp `json:"upload_date"`
}

type QueueStatus struct {
	TotalItems   int `json:"total_items"`
	PostedItems  int `json:"posted_items"`
	PendingItems int `json:"pending_items"`
}

// Annotation is the text produced once per asset at enqueue time.
type Annotation struct {
	Kaomoji         string   `json:"kaomoji"`
	FunFact         string   `json:"fun_fact"`
	FunFactFollowup string   `json:"fun_fact_followup"`
	Hashtags        []string `json:"hashtags"`
}

func (a Annotation) IsEmpty() bool {
	return a.Kaomoji == "" && a.FunFact == "" && a.FunFactFollowup == "" && len(a.Hashtags) == 0
}
