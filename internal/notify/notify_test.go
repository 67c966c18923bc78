package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type captured struct {
	path     string
	title    string
	tags     string
	priority string
	body     string
}

func capture(t *testing.T) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.path = r.URL.Path
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestPosted(t *testing.T) {
	srv, got := capture(t)

	n := New(srv.URL, "my-topic")
	n.Posted(context.Background(), "the tweet text", "https://example.com/a", "12345")

	if got.path != "/my-topic" {
		t.Errorf("unexpected path %q", got.path)
	}
	if got.title != "Promotion posted" {
		t.Errorf("unexpected title %q", got.title)
	}
	if !strings.Contains(got.body, "the tweet text") {
		t.Errorf("expected tweet text in body, got %q", got.body)
	}
	if !strings.Contains(got.body, "status/12345") {
		t.Errorf("expected tweet link in body, got %q", got.body)
	}
	if got.priority != "" {
		t.Errorf("success should not set priority, got %q", got.priority)
	}
}

func TestFailed(t *testing.T) {
	srv, got := capture(t)

	n := New(srv.URL, "my-topic")
	n.Failed(context.Background(), "drafting failed: boom", "https://example.com/a")

	if got.title != "Promotion failed" {
		t.Errorf("unexpected title %q", got.title)
	}
	if got.priority != "high" {
		t.Errorf("expected high priority, got %q", got.priority)
	}
	if !strings.Contains(got.body, "boom") {
		t.Errorf("expected error in body, got %q", got.body)
	}
}

func TestNoTopicIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without a topic")
	}))
	defer srv.Close()

	n := New(srv.URL, "")
	n.Posted(context.Background(), "text", "url", "")
	n.Failed(context.Background(), "err", "")
}
