package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Vovarama1992/cableposter/internal/models"
	"github.com/Vovarama1992/cableposter/internal/ports"
	backoff "github.com/cenkalti/backoff/v4"
)

// RedditFeed reads the public JSON listing of one subreddit.
type RedditFeed struct {
	client       *http.Client
	listingURL   string
	userAgent    string
	buildBackoff func() backoff.BackOff
}

func NewRedditFeed(listingURL, userAgent string, timeout time.Duration) *RedditFeed {
	return &RedditFeed{
		listingURL: listingURL,
		userAgent:  userAgent,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		buildBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}
}

// SubredditListingURL builds the listing URL for r/<sub>.
func SubredditListingURL(sub string) string {
	return fmt.Sprintf("https://www.reddit.com/r/%s.json", sub)
}

var _ ports.FeedSource = (*RedditFeed)(nil)

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID        string  `json:"id"`
	MediaURL  *string `json:"url_overridden_by_dest"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Permalink string  `json:"permalink"`
}

func (f *RedditFeed) Fetch(ctx context.Context) ([]models.Candidate, error) {
	var listing redditListing

	op := func() error {
		l, err := f.fetchOnce(ctx)
		if err != nil {
			return err
		}
		listing = l
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(f.buildBackoff(), ctx)); err != nil {
		return nil, err
	}

	out := make([]models.Candidate, 0, len(listing.Data.Children))
	for _, ch := range listing.Data.Children {
		p := ch.Data
		c := models.Candidate{
			ID:        p.ID,
			Title:     p.Title,
			Author:    p.Author,
			Permalink: p.Permalink,
		}
		if p.MediaURL != nil {
			c.MediaURL = *p.MediaURL
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *RedditFeed) fetchOnce(ctx context.Context) (redditListing, error) {
	var listing redditListing

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.listingURL, nil)
	if err != nil {
		return listing, backoff.Permanent(err)
	}
	// reddit throttles requests carrying a default Go user agent
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return listing, fmt.Errorf("reddit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return listing, fmt.Errorf("reddit http %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return listing, backoff.Permanent(fmt.Errorf("reddit http %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return listing, fmt.Errorf("reddit read body: %w", err)
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return listing, backoff.Permanent(fmt.Errorf("reddit decode: %w", err))
	}
	return listing, nil
}
