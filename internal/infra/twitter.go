package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/cableposter/internal/textutil"
	"github.com/dghubble/oauth1"
)

const (
	twitterUploadBase = "https://upload.twitter.com"
	twitterAPIBase    = "https://api.twitter.com"
)

type TwitterConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string

	// overridable for tests
	UploadBase string
	APIBase    string
}

type TwitterClient struct {
	client     *http.Client
	uploadBase string
	apiBase    string
}

func NewTwitterClient(cfg TwitterConfig, timeout time.Duration) *TwitterClient {
	base := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, base)

	oc := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)

	c := &TwitterClient{
		client:     oc.Client(ctx, token),
		uploadBase: cfg.UploadBase,
		apiBase:    cfg.APIBase,
	}
	if c.uploadBase == "" {
		c.uploadBase = twitterUploadBase
	}
	if c.apiBase == "" {
		c.apiBase = twitterAPIBase
	}
	return c
}

var _ ports.SocialPlatform = (*TwitterClient)(nil)

type uploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

func (t *TwitterClient) UploadMedia(ctx context.Context, data []byte) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	part, err := mw.CreateFormFile("media", "media.jpg")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.uploadBase+"/1.1/media/upload.json", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("twitter media upload: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("twitter media upload http %d: %s", resp.StatusCode, textutil.Truncate(string(raw), 200))
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("twitter media upload decode: %w", err)
	}
	if out.MediaIDString == "" {
		return "", fmt.Errorf("twitter media upload: empty media id")
	}
	return out.MediaIDString, nil
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

func (t *TwitterClient) Post(ctx context.Context, p ports.PostRequest) error {
	body := tweetRequest{Text: p.Text}
	if p.MediaID != "" {
		body.Media = &tweetMedia{MediaIDs: []string{p.MediaID}}
	}

	j, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiBase+"/2/tweets", bytes.NewReader(j))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("tweet request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tweet http %d: %s", resp.StatusCode, textutil.Truncate(string(raw), 200))
	}
	return nil
}
