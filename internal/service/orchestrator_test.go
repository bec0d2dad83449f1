package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	platform models.Platform
	result   models.Result
	mu       sync.Mutex
	requests []PublishRequest
}

func (f *fakePublisher) Platform() models.Platform { return f.platform }

func (f *fakePublisher) Publish(_ context.Context, req PublishRequest) models.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result
}

func (f *fakePublisher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type recordedOutcome struct {
	runID    string
	platform models.Platform
	kind     models.ResultKind
}

type fakeHistory struct {
	outcomes []recordedOutcome
	err      error
}

func (h *fakeHistory) Record(ctx context.Context, _ int64, platform models.Platform, result models.Result) error {
	h.outcomes = append(h.outcomes, recordedOutcome{RunIDFromContext(ctx), platform, result.Kind})
	return h.err
}

func TestPublishAllKeepsGoingAfterTimeout(t *testing.T) {
	ts := newThreadsServer(t, "IN_PROGRESS")
	threads := NewThreadsPublisher(config.Threads{AccessToken: "token", BaseURL: ts.URL}, fastPoll(3), ts.Client(), zap.NewNop())

	instagram := &fakePublisher{platform: models.PlatformInstagram, result: models.Success(map[string]any{"id": "1"})}
	tiktok := &fakePublisher{platform: models.PlatformTiktok, result: models.Success(nil)}
	tumblr := &fakePublisher{platform: models.PlatformTumblr, result: models.Failed("meta status 400")}
	bluesky := &fakePublisher{platform: models.PlatformBluesky, result: models.Success("ok")}

	history := &fakeHistory{}
	o := NewOrchestrator([]Publisher{instagram, tiktok, tumblr, bluesky, threads}, zap.NewNop(), WithHistory(history))

	item := &models.ContentItem{ID: 7, MediaType: models.MediaTypeVideo, Hashtags: []string{"a"}}
	ctx := WithRunID(context.Background(), "run-1")
	results := o.PublishAll(ctx, item, map[models.Platform]string{models.PlatformInstagram: "ig"})

	require.Len(t, results, len(models.Platforms))
	assert.True(t, results[models.PlatformInstagram].Succeeded())
	assert.True(t, results[models.PlatformTiktok].Succeeded())
	assert.Equal(t, models.ResultFailed, results[models.PlatformTumblr].Kind)
	assert.True(t, results[models.PlatformBluesky].Succeeded())
	assert.Equal(t, models.Failed("timed out"), results[models.PlatformThreads])

	normalized := models.NormalizeResults(results)
	assert.Nil(t, normalized["threads"])
	assert.Nil(t, normalized["tumblr"])
	assert.Equal(t, "ok", normalized["bluesky"])

	require.Len(t, history.outcomes, 5)
	for i, p := range models.Platforms {
		assert.Equal(t, p, history.outcomes[i].platform)
		assert.Equal(t, "run-1", history.outcomes[i].runID)
	}
}

func TestPublishAllSkipsTiktokForImages(t *testing.T) {
	publishers := make([]Publisher, 0, len(models.Platforms))
	fakes := map[models.Platform]*fakePublisher{}
	for _, p := range models.Platforms {
		f := &fakePublisher{platform: p, result: models.Success(nil)}
		fakes[p] = f
		publishers = append(publishers, f)
	}
	o := NewOrchestrator(publishers, zap.NewNop())

	item := &models.ContentItem{ID: 1, MediaType: models.MediaTypeImage}
	results := o.PublishAll(context.Background(), item, nil)

	assert.Equal(t, models.Skipped(models.SkipUnsupportedMedia), results[models.PlatformTiktok])
	assert.Zero(t, fakes[models.PlatformTiktok].calls())
	assert.Equal(t, 1, fakes[models.PlatformInstagram].calls())
	assert.Len(t, results, 5)
}

func TestPublishAllCaptionFallbackAndFacets(t *testing.T) {
	fakes := map[models.Platform]*fakePublisher{}
	var publishers []Publisher
	for _, p := range models.Platforms {
		f := &fakePublisher{platform: p, result: models.Success(nil)}
		fakes[p] = f
		publishers = append(publishers, f)
	}
	o := NewOrchestrator(publishers, zap.NewNop())

	item := &models.ContentItem{ID: 1, MediaType: models.MediaTypeVideo, Hashtags: []string{"glitch", "vhs"}}
	captions := map[models.Platform]string{
		models.PlatformInstagram: "ig caption",
		models.PlatformBluesky:   "(o_o)\n\n#glitch #vhs",
	}
	o.PublishAll(context.Background(), item, captions)

	require.Equal(t, 1, fakes[models.PlatformThreads].calls())
	assert.Equal(t, "ig caption", fakes[models.PlatformThreads].requests[0].Caption)
	assert.Equal(t, "ig caption", fakes[models.PlatformTumblr].requests[0].Caption)
	assert.Equal(t, []string{"glitch", "vhs"}, fakes[models.PlatformTumblr].requests[0].Hashtags)

	bsky := fakes[models.PlatformBluesky].requests[0]
	assert.Equal(t, "(o_o)\n\n#glitch #vhs", bsky.Caption)
	require.Len(t, bsky.Facets, 2)
	assert.Equal(t, len("(o_o)\n\n"), bsky.Facets[0].Index.ByteStart)
	assert.Nil(t, fakes[models.PlatformInstagram].requests[0].Facets)
}

func TestPublishAllMissingPublisherAndPanic(t *testing.T) {
	history := &fakeHistory{err: errors.New("db down")}
	o := NewOrchestrator([]Publisher{panicPublisher{}}, zap.NewNop(), WithHistory(history))

	results := o.PublishAll(context.Background(), &models.ContentItem{MediaType: models.MediaTypeVideo}, nil)

	require.Len(t, results, 5)
	assert.Equal(t, models.Failed(reasonNotConfigured), results[models.PlatformInstagram])
	assert.Equal(t, models.ResultFailed, results[models.PlatformTumblr].Kind)
	assert.Contains(t, results[models.PlatformTumblr].Reason, "panic")
	assert.Len(t, history.outcomes, 5)
}
