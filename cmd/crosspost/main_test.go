package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maheshrc27/crosspost/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setupEnv(t *testing.T, queueJSON string) string {
	t.Helper()
	dir := t.TempDir()
	queueFile := filepath.Join(dir, "content_queue.json")
	if queueJSON != "" {
		require.NoError(t, os.WriteFile(queueFile, []byte(queueJSON), 0o644))
	}

	t.Setenv("CONTENT_QUEUE_FILE", queueFile)
	t.Setenv("MEDIA_LINKS_FILE", filepath.Join(dir, "media_links.json"))
	t.Setenv("MEDIA_DIR", filepath.Join(dir, "media"))
	t.Setenv("DOWNLOAD_DIR", filepath.Join(dir, "temp"))
	t.Setenv("SECRET_KEY", testSecret)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("POSTGRES_URI", "")
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const seededQueue = `[
  {"id": 1, "filename": "posted.jpg", "media_type": "image", "posted": true, "posted_date": "2020-01-01T00:00:00"},
  {"id": 2, "filename": "pending.mp4", "media_type": "video", "posted": false, "added_date": "2024-03-01T10:00:00"}
]`

func TestStatusCommand(t *testing.T) {
	setupEnv(t, seededQueue)

	out, err := runCLI(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 2  Posted: 1  Pending: 1")
	assert.Contains(t, out, "pending.mp4")
	assert.NotContains(t, out, "posted.jpg")
}

func TestListCommand(t *testing.T) {
	setupEnv(t, seededQueue)

	out, err := runCLI(t, "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "posted.jpg")
	assert.Contains(t, out, "2024-03-01 10:00")
}

func TestCleanupCommand(t *testing.T) {
	setupEnv(t, seededQueue)

	_, err := runCLI(t, "cleanup", "--days", "-1")
	assert.Error(t, err)

	out, err := runCLI(t, "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 posted items older than 30 days")
}

func TestPostCommandEmptyQueue(t *testing.T) {
	setupEnv(t, "")

	out, err := runCLI(t, "post")
	require.NoError(t, err)
	assert.Contains(t, out, "No unposted content in queue")
}

func TestKeygenCommand(t *testing.T) {
	out, err := runCLI(t, "keygen")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 32)
}

func TestEncryptCommand(t *testing.T) {
	setupEnv(t, "")

	out, err := runCLI(t, "encrypt", "bsky-app-password")
	require.NoError(t, err)

	sealed := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(sealed, "enc:"), sealed)
	plain, err := utils.Decrypt(strings.TrimPrefix(sealed, "enc:"), []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "bsky-app-password", plain)
}

func TestTokenCommand(t *testing.T) {
	setupEnv(t, "")

	out, err := runCLI(t, "token", "--subject", "ci")
	require.NoError(t, err)
	claims, err := utils.ValidateToken(testSecret, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ci", claims.Operator)
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "Name"}, [][]string{{"1", "a.jpg"}, {"22"}}, []columnAlignment{alignRight})
	assert.Contains(t, out, "a.jpg")
	assert.Contains(t, out, "ID")
	assert.Empty(t, renderTable(nil, nil, nil))
}
