package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
)

const (
	defaultTweetURL = "https://api.twitter.com/2/tweets"
	defaultMediaURL = "https://upload.twitter.com/1.1/media/upload.json"
)

// Credentials are the four OAuth1 values for a Twitter/X app acting as a
// user.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// TwitterPublisher posts tweets through the X v2 API. Media still goes
// through the v1.1 upload endpoint; v2 has no media upload.
type TwitterPublisher struct {
	client   *http.Client
	tweetURL string
	mediaURL string
}

// NewTwitterPublisher creates a publisher with an OAuth1-signed HTTP
// client.
func NewTwitterPublisher(creds Credentials) *TwitterPublisher {
	cfg := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)

	client := cfg.Client(oauth1.NoContext, token)
	client.Timeout = 30 * time.Second

	return &TwitterPublisher{
		client:   client,
		tweetURL: defaultTweetURL,
		mediaURL: defaultMediaURL,
	}
}

// Publish uploads the image (if any) and posts the tweet. Returns the tweet
// ID.
func (p *TwitterPublisher) Publish(ctx context.Context, text string, image []byte) (string, error) {
	var mediaIDs []string
	if len(image) > 0 {
		mediaID, err := p.uploadMedia(ctx, image)
		if err != nil {
			// A lost image should not lose the post.
			log.Printf("Image upload failed, posting without image: %v", err)
		} else {
			mediaIDs = append(mediaIDs, mediaID)
		}
	}

	body := map[string]any{"text": text}
	if len(mediaIDs) > 0 {
		body["media"] = map[string]any{"media_ids": mediaIDs}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tweetURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting tweet: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("twitter API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parsing tweet response: %w", err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("tweet response missing id: %s", string(respBody))
	}

	log.Printf("Posted tweet %s", result.Data.ID)
	return result.Data.ID, nil
}

func (p *TwitterPublisher) uploadMedia(ctx context.Context, image []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("media", "image.png")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(image); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.mediaURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading media: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("media upload returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parsing media response: %w", err)
	}
	if result.MediaIDString == "" {
		return "", fmt.Errorf("media response missing id: %s", string(respBody))
	}
	return result.MediaIDString, nil
}
