package infra

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTwitter(t *testing.T, h http.Handler) *TwitterClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewTwitterClient(TwitterConfig{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		AccessToken:    "at",
		AccessSecret:   "as",
		UploadBase:     srv.URL,
		APIBase:        srv.URL,
	}, 2*time.Second)
}

func TestTwitterClient_UploadMedia(t *testing.T) {
	var (
		authHeader string
		uploaded   []byte
	)
	tw := newTestTwitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.1/media/upload.json", r.URL.Path)
		authHeader = r.Header.Get("Authorization")

		f, _, err := r.FormFile("media")
		assert.NoError(t, err)
		uploaded, _ = io.ReadAll(f)

		_, _ = w.Write([]byte(`{"media_id": 42, "media_id_string": "42"}`))
	}))

	id, err := tw.UploadMedia(context.Background(), []byte("JPEG"))
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, []byte("JPEG"), uploaded)
	assert.True(t, strings.HasPrefix(authHeader, "OAuth "))
	assert.Contains(t, authHeader, `oauth_consumer_key="ck"`)
}

func TestTwitterClient_UploadMediaRejected(t *testing.T) {
	tw := newTestTwitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"media type unrecognized"}]}`))
	}))

	_, err := tw.UploadMedia(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 400")
}

func TestTwitterClient_Post(t *testing.T) {
	var got tweetRequest
	tw := newTestTwitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1","text":"t"}}`))
	}))

	require.NoError(t, tw.Post(context.Background(), ports.PostRequest{Text: "hello", MediaID: "42"}))
	assert.Equal(t, "hello", got.Text)
	require.NotNil(t, got.Media)
	assert.Equal(t, []string{"42"}, got.Media.MediaIDs)
}

func TestTwitterClient_PostTextOnly(t *testing.T) {
	var raw map[string]any
	tw := newTestTwitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, tw.Post(context.Background(), ports.PostRequest{Text: "hello"}))
	assert.Equal(t, "hello", raw["text"])
	assert.NotContains(t, raw, "media")
}

func TestTwitterClient_PostRejected(t *testing.T) {
	tw := newTestTwitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"duplicate content"}`))
	}))

	err := tw.Post(context.Background(), ports.PostRequest{Text: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate content")
}
