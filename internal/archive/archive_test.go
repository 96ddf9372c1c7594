package archive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	body []byte
	err  error
}

func (s *stubFetcher) Fetch(context.Context, string) ([]byte, error) { return s.body, s.err }

type memArchiver struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (m *memArchiver) Put(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = body
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchivingFetcher_StoresPayloadUnderProviderKey(t *testing.T) {
	arch := &memArchiver{}
	f := NewArchivingFetcher(&stubFetcher{body: []byte(`{"jobs":[]}`)}, arch, "raw", "provider1", discardLogger())
	f.now = func() time.Time { return time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) }

	body, err := f.Fetch(context.Background(), "http://example.test")
	require.NoError(t, err)
	assert.Equal(t, `{"jobs":[]}`, string(body))

	require.Len(t, arch.objects, 1)
	for key, stored := range arch.objects {
		assert.True(t, strings.HasPrefix(key, "raw/provider1/20250310T080000Z-"), key)
		assert.True(t, strings.HasSuffix(key, ".json"), key)
		assert.Equal(t, body, stored)
	}
}

func TestArchivingFetcher_ArchiveFailureIsNotFatal(t *testing.T) {
	arch := &memArchiver{err: errors.New("access denied")}
	f := NewArchivingFetcher(&stubFetcher{body: []byte(`{}`)}, arch, "raw", "provider2", discardLogger())

	body, err := f.Fetch(context.Background(), "http://example.test")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))
}

func TestArchivingFetcher_FetchErrorSkipsArchive(t *testing.T) {
	arch := &memArchiver{}
	f := NewArchivingFetcher(&stubFetcher{err: errors.New("timeout")}, arch, "raw", "provider1", discardLogger())

	_, err := f.Fetch(context.Background(), "http://example.test")
	require.Error(t, err)
	assert.Empty(t, arch.objects)
}

func TestS3Archiver_PutUploadsObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/test-bucket/raw/provider1/payload.json") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if !strings.Contains(string(body), `{"jobs":[]}`) {
			t.Errorf("unexpected body: %s", string(body))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	a, err := NewS3Archiver(context.Background(), S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)

	require.NoError(t, a.Put(context.Background(), "raw/provider1/payload.json", []byte(`{"jobs":[]}`)))
}

func TestS3Archiver_PutReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	a, err := NewS3Archiver(context.Background(), S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)

	assert.Error(t, a.Put(context.Background(), "raw/x.json", []byte(`{}`)))
}
