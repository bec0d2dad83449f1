package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMedia struct {
	path        string
	err         error
	tempCleaned int
}

func (m *stubMedia) Ingest(context.Context) ([]service.IngestedMedia, error) { return nil, nil }

func (m *stubMedia) EnsureLocalFile(context.Context, *models.ContentItem) (string, error) {
	return m.path, m.err
}

func (m *stubMedia) CleanupTempFiles(context.Context, time.Duration) (int, error) {
	m.tempCleaned++
	return 0, nil
}

type stubPublisher struct {
	platform models.Platform
	result   models.Result
	got      []service.PublishRequest
	runIDs   []string
	before   func(ctx context.Context) models.Result
}

func (p *stubPublisher) Platform() models.Platform { return p.platform }

func (p *stubPublisher) Publish(ctx context.Context, req service.PublishRequest) models.Result {
	p.got = append(p.got, req)
	p.runIDs = append(p.runIDs, service.RunIDFromContext(ctx))
	if p.before != nil {
		return p.before(ctx)
	}
	return p.result
}

type jobFixture struct {
	queue        repository.QueueRepository
	media        *stubMedia
	publishers   map[models.Platform]*stubPublisher
	orchestrator service.Orchestrator
	job          *PostingJob
}

func newJobFixture(t *testing.T, queueJSON string) *jobFixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "content_queue.json")
	if queueJSON != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(queueJSON), 0o644))
	}

	f := &jobFixture{
		queue:      repository.NewQueueRepository(path, zap.NewNop()),
		media:      &stubMedia{path: "/tmp/local.mp4"},
		publishers: map[models.Platform]*stubPublisher{},
	}
	var publishers []service.Publisher
	for _, p := range models.Platforms {
		stub := &stubPublisher{platform: p, result: models.Success(map[string]any{"id": string(p)})}
		f.publishers[p] = stub
		publishers = append(publishers, stub)
	}
	f.publishers[models.PlatformTumblr].result = models.Failed("meta status 401")

	f.orchestrator = service.NewOrchestrator(publishers, zap.NewNop())
	f.job = f.jobWithTimeout(time.Minute)
	return f
}

func (f *jobFixture) jobWithTimeout(timeout time.Duration) *PostingJob {
	return NewPostingJob(f.queue, service.NewQueueService(f.queue), f.media, f.orchestrator, 30, timeout, zap.NewNop())
}

func blockUntilDone(ctx context.Context) models.Result {
	<-ctx.Done()
	return models.Failed(ctx.Err().Error())
}

func TestRunEmptyQueue(t *testing.T) {
	f := newJobFixture(t, "")

	summary, err := f.job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.ContentID)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, f.media.tempCleaned)
	assert.Empty(t, f.publishers[models.PlatformInstagram].got)
}

func TestRunPostsAndMarksItem(t *testing.T) {
	f := newJobFixture(t, `[
  {"id": 1, "filename": "clip.mp4", "url": "https://cdn.example/clip.mp4", "media_type": "video",
   "added_date": "2024-01-01T00:00:00", "posted": false, "posted_date": null, "posting_results": {},
   "kaomoji": "(o_o)", "fun_fact": "fact", "hashtags": ["vhs"],
   "platform_captions": {"instagram": "frozen caption"}}
]`)

	summary, err := f.job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.ContentID)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	ig := f.publishers[models.PlatformInstagram]
	require.Len(t, ig.got, 1)
	assert.Equal(t, "frozen caption", ig.got[0].Caption)
	assert.Equal(t, "/tmp/local.mp4", ig.got[0].Item.LocalPath)
	assert.Equal(t, summary.RunID, ig.runIDs[0])
	assert.Equal(t, "frozen caption", f.publishers[models.PlatformBluesky].got[0].Caption)

	item, err := f.queue.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, item.Posted)
	require.NotNil(t, item.PostedDate)
	assert.Equal(t, map[string]any{"id": "instagram"}, item.PostingResults["instagram"])
	assert.Nil(t, item.PostingResults["tumblr"])
	assert.Contains(t, item.PostingResults, "tumblr")
}

func TestRunContinuesWithoutLocalCopy(t *testing.T) {
	f := newJobFixture(t, `[{"id": 3, "filename": "a.jpg", "url": "https://cdn.example/a.jpg", "media_type": "image", "posted": false}]`)
	f.media.err = errors.New("download failed")

	summary, err := f.job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.ContentID)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, f.publishers[models.PlatformTiktok].got)

	item, err := f.queue.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, item.Posted)
	assert.Equal(t, models.SkipUnsupportedMedia, item.PostingResults["tiktok"])
}

func TestRunAppliesRetention(t *testing.T) {
	f := newJobFixture(t, `[
  {"id": 1, "filename": "old.jpg", "media_type": "image", "posted": true, "posted_date": "2020-01-01T00:00:00"},
  {"id": 2, "filename": "new.jpg", "media_type": "image", "posted": false}
]`)

	summary, err := f.job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.ContentID)
	assert.Equal(t, 1, summary.Cleaned)

	items, err := f.queue.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	f := newJobFixture(t, `[{"id": 1, "filename": "a.jpg", "media_type": "image", "posted": false}]`)

	other := flock.New(f.queue.Path() + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	t.Cleanup(func() { _ = other.Unlock() })

	_, err = f.job.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	item, err := f.queue.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, item.Posted)
}

func TestRunKeepsItemsAppendedByAnotherHandle(t *testing.T) {
	f := newJobFixture(t, `[{"id": 1, "filename": "a.jpg", "media_type": "image", "posted": false}]`)

	cli := repository.NewQueueRepository(f.queue.Path(), zap.NewNop())
	added, err := cli.Append(context.Background(), &models.ContentItem{Filename: "b.jpg", MediaType: models.MediaTypeImage})
	require.NoError(t, err)
	assert.Equal(t, int64(2), added.ID)

	summary, err := f.job.Run(context.Background())
	require.NoError(t, err)

	onDisk, err := repository.NewQueueRepository(f.queue.Path(), zap.NewNop()).List(context.Background())
	require.NoError(t, err)
	require.Len(t, onDisk, 2)
	for _, item := range onDisk {
		assert.Equal(t, item.ID == summary.ContentID, item.Posted, "item %d", item.ID)
	}
}

func TestRunRecordsResultsWhenPublishDeadlinePasses(t *testing.T) {
	f := newJobFixture(t, `[{"id": 1, "filename": "a.jpg", "url": "https://cdn.example/a.jpg", "media_type": "image", "posted": false}]`)
	f.publishers[models.PlatformThreads].before = blockUntilDone
	job := f.jobWithTimeout(50 * time.Millisecond)

	summary, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ResultFailed, summary.Results[models.PlatformThreads].Kind)
	assert.Equal(t, models.ResultSuccess, summary.Results[models.PlatformBluesky].Kind)

	item, err := f.queue.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, item.Posted)
	assert.Contains(t, item.PostingResults, "threads")
	assert.Nil(t, item.PostingResults["threads"])
	assert.Equal(t, map[string]any{"id": "bluesky"}, item.PostingResults["bluesky"])
}

func TestRunRecordsResultsWhenCallerCancels(t *testing.T) {
	f := newJobFixture(t, `[{"id": 1, "filename": "a.jpg", "url": "https://cdn.example/a.jpg", "media_type": "image", "posted": false}]`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.publishers[models.PlatformThreads].before = func(ctx context.Context) models.Result {
		cancel()
		return blockUntilDone(ctx)
	}

	_, err := f.job.Run(ctx)
	require.NoError(t, err)

	item, err := f.queue.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, item.Posted)
	assert.Equal(t, map[string]any{"id": "instagram"}, item.PostingResults["instagram"])
}
