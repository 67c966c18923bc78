// Package notify sends push notifications about run outcomes through
// ntfy.sh. An empty topic disables notifications entirely.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultServer = "https://ntfy.sh"

// Notifier publishes messages to an ntfy topic.
type Notifier struct {
	server string
	topic  string
	client *http.Client
}

// New creates a notifier for the given topic. server empty uses ntfy.sh.
func New(server, topic string) *Notifier {
	if server == "" {
		server = defaultServer
	}
	return &Notifier{
		server: strings.TrimRight(server, "/"),
		topic:  topic,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Posted notifies that a promotion went out. Notification failures are
// logged, never propagated: a missed ping must not fail a successful run.
func (n *Notifier) Posted(ctx context.Context, text, pageURL, externalID string) {
	if n == nil || n.topic == "" {
		return
	}

	parts := []string{"Posted:", "", text, "", "Page: " + pageURL}
	if externalID != "" {
		parts = append(parts, "Tweet: https://twitter.com/i/web/status/"+externalID)
	}

	n.send(ctx, "Promotion posted", "bird,automation", "", strings.Join(parts, "\n"))
}

// Failed notifies that a run failed. pageURL may be empty when the failure
// happened before selection.
func (n *Notifier) Failed(ctx context.Context, errMessage, pageURL string) {
	if n == nil || n.topic == "" {
		return
	}

	parts := []string{"Promotion failed:", "", errMessage}
	if pageURL != "" {
		parts = append(parts, "", "Page: "+pageURL)
	}

	n.send(ctx, "Promotion failed", "warning,automation", "high", strings.Join(parts, "\n"))
}

func (n *Notifier) send(ctx context.Context, title, tags, priority, body string) {
	url := fmt.Sprintf("%s/%s", n.server, n.topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		log.Printf("Failed to build notification request: %v", err)
		return
	}
	req.Header.Set("Title", title)
	req.Header.Set("Tags", tags)
	if priority != "" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("Failed to send notification: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("Notification rejected with status %d", resp.StatusCode)
		return
	}
	log.Printf("Notification sent to topic %s", n.topic)
}
