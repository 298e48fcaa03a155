package stations

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Vovarama1992/cableposter/internal/models"
	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS1FilterCandidate(t *testing.T) {
	s1 := NewS1FilterCandidate()

	cases := []struct {
		name string
		url  string
		want error
	}{
		{"jpg", "https://i.redd.it/a.jpg", nil},
		{"png", "https://i.redd.it/a.png", nil},
		{"no media", "", ports.ErrNoMedia},
		{"gif", "https://i.redd.it/a.gif", ports.ErrUnsupportedMedia},
		{"video", "https://v.redd.it/abc", ports.ErrUnsupportedMedia},
		{"jpeg", "https://i.imgur.com/a.jpeg", ports.ErrUnsupportedMedia},
		{"query string", "https://i.redd.it/a.jpg?width=640", ports.ErrUnsupportedMedia},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s1.Run(models.Candidate{ID: "x", MediaURL: tc.url})
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestS1FilterCandidate_RejectsPathLikeIDs(t *testing.T) {
	s1 := NewS1FilterCandidate()

	for _, id := range []string{"", ".", "..", "a/b", "../../etc/x", `a\b`} {
		err := s1.Run(models.Candidate{ID: id, MediaURL: "https://i.redd.it/a.jpg"})
		assert.ErrorIs(t, err, ports.ErrUnsupportedMedia, "id %q", id)
	}
	assert.NoError(t, s1.Run(models.Candidate{ID: "1abc2d", MediaURL: "https://i.redd.it/a.jpg"}))
}

func TestMediaKey(t *testing.T) {
	assert.Equal(t, "CablePornDev/media/abc.jpg", MediaKey("CablePornDev", "abc"))
	assert.Equal(t, "CablePornDev/media/abc.jpg", MediaKey("/CablePornDev/", "abc"))
	assert.Equal(t, "media/abc.jpg", MediaKey("", "abc"))
}

func TestRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, Release(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, Release(path), "second release is a no-op")
	assert.NoError(t, Release(""))
}

type halfDownloader struct{}

func (halfDownloader) Download(ctx context.Context, url string, w io.Writer) error {
	_, _ = w.Write([]byte("partial"))
	return errors.New("connection reset")
}

type okDownloader struct{}

func (okDownloader) Download(ctx context.Context, url string, w io.Writer) error {
	_, err := w.Write([]byte("jpeg bytes"))
	return err
}

func TestS2DownloadMedia_WritesNamespacedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ingest")
	s2 := NewS2DownloadMedia(okDownloader{}, dir, nil)

	path, err := s2.Run(context.Background(), models.Candidate{ID: "abc", MediaURL: "https://i.redd.it/a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.jpg"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(b))
}

func TestS2DownloadMedia_FailureRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	s2 := NewS2DownloadMedia(halfDownloader{}, dir, nil)

	_, err := s2.Run(context.Background(), models.Candidate{ID: "abc", MediaURL: "https://i.redd.it/a.jpg"})
	require.ErrorIs(t, err, ports.ErrDownloadFailed)

	_, statErr := os.Stat(filepath.Join(dir, "abc.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}

type recordingPlatform struct {
	uploadErr error
	postErr   error
	posted    []ports.PostRequest
}

func (p *recordingPlatform) UploadMedia(ctx context.Context, data []byte) (string, error) {
	if p.uploadErr != nil {
		return "", p.uploadErr
	}
	return "m-1", nil
}

func (p *recordingPlatform) Post(ctx context.Context, req ports.PostRequest) error {
	if p.postErr != nil {
		return p.postErr
	}
	p.posted = append(p.posted, req)
	return nil
}

func TestS5Publish_TextOnlyWhenFileMissing(t *testing.T) {
	p := &recordingPlatform{}
	s5 := NewS5Publish(p, nil)

	withMedia, err := s5.Run(context.Background(), "abc", filepath.Join(t.TempDir(), "missing.jpg"), "hello")
	require.NoError(t, err)
	assert.False(t, withMedia)
	require.Len(t, p.posted, 1)
	assert.Equal(t, ports.PostRequest{Text: "hello"}, p.posted[0])
}

func TestS5Publish_PostFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	s5 := NewS5Publish(&recordingPlatform{postErr: errors.New("503")}, nil)

	_, err := s5.Run(context.Background(), "abc", path, "hello")
	assert.ErrorIs(t, err, ports.ErrPlatformPostFailed)
}
