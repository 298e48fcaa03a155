package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Vovarama1992/cableposter/internal/ports"
	"golang.org/x/time/rate"
)

// maxMediaBytes caps a single download; the platform rejects larger images anyway.
const maxMediaBytes = 20 << 20

type HTTPDownloader struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPDownloader allows perSecond downloads with a small burst.
func NewHTTPDownloader(userAgent string, timeout time.Duration, perSecond float64) *HTTPDownloader {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &HTTPDownloader{
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 3),
		userAgent: userAgent,
	}
}

var _ ports.MediaDownloader = (*HTTPDownloader)(nil)

func (d *HTTPDownloader) Download(ctx context.Context, url string, w io.Writer) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: http %d", url, resp.StatusCode)
	}

	n, err := io.Copy(w, io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	if n > maxMediaBytes {
		return fmt.Errorf("download %s: body exceeds %d bytes", url, maxMediaBytes)
	}
	return nil
}
