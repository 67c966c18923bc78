// Package shot captures page screenshots through an external render
// service: POST a URL and a CSS selector, get PNG bytes back.
package shot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxImageBytes = 5 << 20 // the platform rejects larger uploads anyway

// Client talks to the render service.
type Client struct {
	serviceURL string
	client     *http.Client
}

// New creates a screenshot client. serviceURL empty means screenshots are
// disabled; Capture then always errors.
func New(serviceURL string) *Client {
	return &Client{
		serviceURL: serviceURL,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Enabled reports whether a render service is configured.
func (c *Client) Enabled() bool {
	return c.serviceURL != ""
}

// Capture renders pageURL and screenshots the element matching selector.
// Returns the PNG bytes.
func (c *Client) Capture(ctx context.Context, pageURL, selector string) ([]byte, error) {
	if c.serviceURL == "" {
		return nil, fmt.Errorf("no render service configured")
	}

	payload, err := json.Marshal(map[string]string{
		"url":      pageURL,
		"selector": selector,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("render service returned %d: %s", resp.StatusCode, string(body))
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading screenshot: %w", err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("render service returned empty image")
	}
	if len(img) > maxImageBytes {
		return nil, fmt.Errorf("screenshot exceeds %d bytes", maxImageBytes)
	}
	return img, nil
}

// CaptureFirst tries each selector in order and returns the first
// successful screenshot along with the selector that produced it.
func (c *Client) CaptureFirst(ctx context.Context, pageURL string, selectors []string) ([]byte, string, error) {
	var lastErr error
	for _, sel := range selectors {
		img, err := c.Capture(ctx, pageURL, sel)
		if err != nil {
			lastErr = err
			continue
		}
		return img, sel, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no selectors configured")
	}
	return nil, "", lastErr
}
