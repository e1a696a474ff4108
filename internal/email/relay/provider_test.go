package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"action": q.Get("action"),
			"limit":  q.Get("limit"),
			"count":  q.Get("count"),
			"token":  q.Get("token"),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"date": "2025-01-01T00:00:00Z", "from": "Netflix <info@netflix.com>", "subject": "Code", "body": "Your code is 1234"},
			{"date": "2025-01-02T10:30:00.000Z", "from": "shop@example.com", "body": "", "snippet": "snippet only"},
			{"date": "2025-01-03T00:00:00Z", "from": "\"X Corp\" <x@example.com>"}
		]`)
	}))
	defer srv.Close()

	p := New(srv.Client(), email.NoRetry, testLogger())
	node := email.ScriptRelay{Name: "relay", Active: true, EndpointURL: srv.URL + "/exec", Token: "secret"}

	msgs, err := p.Fetch(context.Background(), node, 7)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	want := map[string]string{"action": "get", "limit": "7", "count": "7", "token": "secret"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if !msgs[0].SentAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected SentAt: %v", msgs[0].SentAt)
	}
	if msgs[0].BodyText != "Your code is 1234" || msgs[0].Subject != "Code" {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].BodyText != "snippet only" {
		t.Errorf("expected snippet fallback, got %q", msgs[1].BodyText)
	}
	if msgs[2].BodyText != "" || msgs[2].Subject != "" {
		t.Errorf("expected empty body and subject, got %+v", msgs[2])
	}
	if msgs[1].From != "shop@example.com" || msgs[2].From != "X Corp <x@example.com>" {
		t.Errorf("unexpected From normalization: %q, %q", msgs[1].From, msgs[2].From)
	}
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		category email.Category
	}{
		{name: "non-JSON body", status: http.StatusOK, body: "<html>Sign in</html>", category: email.CategoryParse},
		{name: "JSON object instead of array", status: http.StatusOK, body: `{"error":"bad token"}`, category: email.CategoryParse},
		{name: "missing date", status: http.StatusOK, body: `[{"from":"a@b.c","body":"x"}]`, category: email.CategoryParse},
		{name: "invalid date", status: http.StatusOK, body: `[{"date":"yesterday","from":"a@b.c"}]`, category: email.CategoryParse},
		{name: "JSON null", status: http.StatusOK, body: "null", category: email.CategoryParse},
		{name: "padded JSON null", status: http.StatusOK, body: "  null  ", category: email.CategoryParse},
		{name: "server error", status: http.StatusInternalServerError, body: "oops", category: email.CategoryTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			p := New(srv.Client(), email.NoRetry, testLogger())
			_, err := p.Fetch(context.Background(), email.ScriptRelay{Name: "relay", EndpointURL: srv.URL}, 5)
			if err == nil {
				t.Fatal("expected error")
			}
			if !email.IsCategory(err, tt.category) {
				t.Errorf("expected %s error, got %v", tt.category, err)
			}
		})
	}
}

func TestFetch_RetriesTransportErrorsOnly(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[{"date":"2025-01-01T00:00:00Z","from":"a@b.c","body":"ok"}]`)
	}))
	defer srv.Close()

	policy := email.RetryPolicy{Attempts: 3, Delay: time.Millisecond}
	p := New(srv.Client(), policy, testLogger())

	msgs, err := p.Fetch(context.Background(), email.ScriptRelay{Name: "relay", EndpointURL: srv.URL}, 1)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("expected 1 message, got %d", len(msgs))
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}

	// Parse errors are final even with retries allowed
	calls.Store(0)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "not json")
	}))
	defer bad.Close()

	_, err = p.Fetch(context.Background(), email.ScriptRelay{Name: "relay", EndpointURL: bad.URL}, 1)
	if !email.IsCategory(err, email.CategoryParse) {
		t.Errorf("expected parse error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call for parse failure, got %d", calls.Load())
	}
}

func TestFetch_WrongNodeKind(t *testing.T) {
	p := New(nil, email.NoRetry, testLogger())
	if _, err := p.Fetch(context.Background(), email.GraphMailbox{Name: "g"}, 1); err == nil {
		t.Error("expected error for graph node")
	}
}

func TestBuildURL_KeepsExistingQuery(t *testing.T) {
	got, err := buildURL(email.ScriptRelay{EndpointURL: "https://script.example.com/macros/s/X/exec?v=2", Token: "a b"}, 3)
	if err != nil {
		t.Fatalf("buildURL error: %v", err)
	}
	want := "https://script.example.com/macros/s/X/exec?action=get&count=3&limit=3&token=a+b&v=2"
	if got != want {
		t.Errorf("buildURL() = %q, want %q", got, want)
	}
}
