package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type blueskyCapture struct {
	blob       []byte
	blobAuth   string
	recordAuth string
	record     transfer.BlueskyCreateRecordRequest
}

func newBlueskyServer(t *testing.T, capture *blueskyCapture) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /xrpc/com.atproto.server.createSession", func(w http.ResponseWriter, r *http.Request) {
		var req transfer.BlueskySessionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "app-password" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"error": "AuthenticationRequired", "message": "Invalid identifier or password"})
			return
		}
		writeJSON(w, map[string]string{"did": "did:plc:abc", "handle": req.Identifier, "accessJwt": "jwt-1"})
	})
	mux.HandleFunc("POST /xrpc/com.atproto.repo.uploadBlob", func(w http.ResponseWriter, r *http.Request) {
		capture.blobAuth = r.Header.Get("Authorization")
		capture.blob, _ = io.ReadAll(r.Body)
		writeJSON(w, map[string]any{"blob": map[string]any{
			"$type":    "blob",
			"ref":      map[string]string{"$link": "bafkrei"},
			"mimeType": r.Header.Get("Content-Type"),
			"size":     len(capture.blob),
		}})
	})
	mux.HandleFunc("POST /xrpc/com.atproto.repo.createRecord", func(w http.ResponseWriter, r *http.Request) {
		capture.recordAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&capture.record))
		writeJSON(w, map[string]string{"uri": "at://did:plc:abc/app.bsky.feed.post/3k", "cid": "bafyrei"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBlueskyPostsImageWithFacets(t *testing.T) {
	var capture blueskyCapture
	srv := newBlueskyServer(t, &capture)
	p := NewBlueskyPublisher(config.Bluesky{Username: "me.bsky.social", Password: "app-password", BaseURL: srv.URL}, srv.Client(), zap.NewNop())

	caption := "🙂\n\n#artdeco #drone"
	tags := []string{"artdeco", "drone"}
	item := &models.ContentItem{MediaType: models.MediaTypeImage, LocalPath: writeTempMedia(t, "a.jpg", "img")}
	result := p.Publish(context.Background(), PublishRequest{Item: item, Caption: caption, Facets: BlueskyFacets(caption, tags)})

	require.True(t, result.Succeeded(), result.String())
	assert.Equal(t, map[string]any{"uri": "at://did:plc:abc/app.bsky.feed.post/3k", "cid": "bafyrei", "success": true},
		models.NormalizeResult(result))

	assert.Equal(t, "img", string(capture.blob))
	assert.Equal(t, "Bearer jwt-1", capture.blobAuth)
	assert.Equal(t, "Bearer jwt-1", capture.recordAuth)
	assert.Equal(t, "did:plc:abc", capture.record.Repo)
	assert.Equal(t, transfer.BlueskyPostCollection, capture.record.Collection)
	assert.Equal(t, caption, capture.record.Record.Text)
	require.Len(t, capture.record.Record.Facets, 2)
	assert.Equal(t, 6, capture.record.Record.Facets[0].Index.ByteStart)
	require.NotNil(t, capture.record.Record.Embed)
	assert.Equal(t, transfer.BlueskyImagesEmbed, capture.record.Record.Embed.Type)
	require.Len(t, capture.record.Record.Embed.Images, 1)
	assert.Equal(t, "a.jpg", capture.record.Record.Embed.Images[0].Alt)
}

func TestBlueskyPostsVideoEmbed(t *testing.T) {
	var capture blueskyCapture
	srv := newBlueskyServer(t, &capture)
	p := NewBlueskyPublisher(config.Bluesky{Username: "me", Password: "app-password", BaseURL: srv.URL}, srv.Client(), zap.NewNop())

	item := &models.ContentItem{MediaType: models.MediaTypeVideo, LocalPath: writeTempMedia(t, "v.mp4", "vid")}
	result := p.Publish(context.Background(), PublishRequest{Item: item, Caption: "x"})

	require.True(t, result.Succeeded(), result.String())
	embed := capture.record.Record.Embed
	require.NotNil(t, embed)
	assert.Equal(t, transfer.BlueskyVideoEmbed, embed.Type)
	assert.NotNil(t, embed.Video)
	assert.Equal(t, "Video: v.mp4", embed.Alt)
}

func TestBlueskyLoginFailure(t *testing.T) {
	var capture blueskyCapture
	srv := newBlueskyServer(t, &capture)
	p := NewBlueskyPublisher(config.Bluesky{Username: "me", Password: "wrong", BaseURL: srv.URL}, srv.Client(), zap.NewNop())

	item := &models.ContentItem{MediaType: models.MediaTypeImage, LocalPath: writeTempMedia(t, "a.jpg", "img")}
	result := p.Publish(context.Background(), PublishRequest{Item: item})

	assert.Equal(t, models.ResultFailed, result.Kind)
	assert.Contains(t, result.Reason, "login failed")
	assert.Nil(t, capture.blob)
}
