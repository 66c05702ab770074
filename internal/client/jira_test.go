package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/errs"
)

func newTestJiraClient(url string) *JiraClient {
	return NewJiraClient(config.JiraConfig{
		BaseURL:   url,
		Email:     "ops@example.com",
		APIToken:  "token",
		PageSize:  2,
		RateLimit: 0,
	})
}

func TestSearchTicketsPaginates(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ops@example.com" || pass != "token" {
			t.Errorf("missing basic auth")
		}
		if got := r.URL.Query().Get("jql"); got != `status = "Done"` {
			t.Errorf("unexpected jql %q", got)
		}
		switch r.URL.Query().Get("startAt") {
		case "0":
			fmt.Fprint(w, `{"startAt":0,"maxResults":2,"total":3,"issues":[{"id":"1","key":"S-1","fields":{"summary":"a"}},{"id":"2","key":"S-2","fields":{"summary":"b"}}]}`)
		case "2":
			fmt.Fprint(w, `{"startAt":2,"maxResults":2,"total":3,"issues":[{"id":"3","key":"S-3","fields":{"summary":"c","priority":{"name":"High"},"status":{"name":"Done"}}}]}`)
		default:
			t.Errorf("unexpected startAt %q", r.URL.Query().Get("startAt"))
		}
	}))
	defer srv.Close()

	issues, err := newTestJiraClient(srv.URL).SearchTickets(context.Background(), "Done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 3 || calls != 2 {
		t.Fatalf("expected 3 issues over 2 calls, got %d issues over %d calls", len(issues), calls)
	}
	if issues[2].Fields.Priority == nil || issues[2].Fields.Priority.Name != "High" {
		t.Fatalf("expected priority to be decoded")
	}
}

func TestSearchTicketsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestJiraClient(srv.URL).SearchTickets(context.Background(), "Done")
	if !errors.Is(err, errs.ErrTrackerUnavailable) {
		t.Fatalf("expected ErrTrackerUnavailable, got %v", err)
	}
}

func TestFetchComments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/rest/api/3/issue/10001/comment") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"startAt":0,"maxResults":2,"total":2,"comments":[
			{"id":"1","body":{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Reset the "},{"type":"text","text":"password."}]}]}},
			{"id":"2","body":{"type":"doc"}}
		]}`)
	}))
	defer srv.Close()

	comments, err := newTestJiraClient(srv.URL).FetchComments(context.Background(), "10001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 1 || comments[0] != "Reset the password." {
		t.Fatalf("unexpected comments: %q", comments)
	}
}

func TestJiraNotConfigured(t *testing.T) {
	c := NewJiraClient(config.JiraConfig{})
	if c.IsConfigured() {
		t.Fatalf("expected unconfigured client")
	}
	if _, err := c.FetchComments(context.Background(), "1"); !errors.Is(err, errs.ErrTrackerUnavailable) {
		t.Fatalf("expected ErrTrackerUnavailable, got %v", err)
	}
}
