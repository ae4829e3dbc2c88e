package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpipe/agentpipe/core"
)

func newTestAgent(t *testing.T, handler http.HandlerFunc) *Agent {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a, err := New(context.Background(), Config{
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		DefaultBucket:   "artifacts",
	})
	require.NoError(t, err)

	return a
}

func TestNewRequiresRegion(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")
}

func TestValidate(t *testing.T) {
	a := &Agent{defaultBucket: "artifacts"}

	assert.True(t, a.Validate(core.NewRequest(ActionListBuckets, nil)))
	assert.False(t, a.Validate(core.NewRequest(ActionGetObject, nil)))
	assert.True(t, a.Validate(core.NewRequest(ActionGetObject, map[string]any{"key": "reports/a.txt"})))
	assert.False(t, a.Validate(core.NewRequest(ActionCreateBucket, nil)))
	assert.True(t, a.Validate(core.NewRequest(ActionCreateBucket, map[string]any{"bucket": "new"})))
	assert.False(t, a.Validate(core.NewRequest("purge_bucket", nil)))
}

func TestCapabilities(t *testing.T) {
	a := &Agent{}
	assert.ElementsMatch(t, []string{
		"list_buckets", "list_objects", "get_object",
		"put_object", "delete_object", "create_bucket",
	}, a.Capabilities())
}

func TestGetObject(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/artifacts/reports/a.txt", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello world"))
	})

	resp, err := a.Process(context.Background(), core.NewRequest(ActionGetObject, map[string]any{"key": "reports/a.txt"}))
	require.NoError(t, err)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello world", data["content"])
	assert.Equal(t, "artifacts", data["bucket"])
}

func TestPutObjectUsesExplicitBucket(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/backups/dump.sql", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	resp, err := a.Process(context.Background(), core.NewRequest(ActionPutObject, map[string]any{
		"bucket":  "backups",
		"key":     "dump.sql",
		"content": "SELECT 1;",
	}))
	require.NoError(t, err)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, len("SELECT 1;"), data["size"])
}

func TestListObjects(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/artifacts", r.URL.Path)
		assert.Equal(t, "reports/", r.URL.Query().Get("prefix"))
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult>
  <Name>artifacts</Name>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>reports/a.txt</Key><Size>11</Size></Contents>
</ListBucketResult>`))
	})

	resp, err := a.Process(context.Background(), core.NewRequest(ActionListObjects, map[string]any{"prefix": "reports/"}))
	require.NoError(t, err)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	objects, ok := data["objects"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, objects, 1)
	assert.Equal(t, "reports/a.txt", objects[0]["key"])
	assert.Equal(t, int64(11), objects[0]["size"])
}

func TestMissingBucketFails(t *testing.T) {
	a := &Agent{}

	resp, err := a.Process(context.Background(), core.NewRequest(ActionListObjects, nil))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "bucket is required")
}
