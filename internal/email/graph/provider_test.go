package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGraph serves both the token endpoint and the messages endpoint
type fakeGraph struct {
	tokenStatus int
	tokenBody   string
	listStatus  int
	listBody    string
	listCalls   int
	form        map[string]string
	authHeader  string
	top         string
	selectQ     string
}

func (f *fakeGraph) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.form = map[string]string{}
		for k := range r.PostForm {
			f.form[k] = r.PostForm.Get(k)
		}
		if f.tokenStatus != 0 {
			w.WriteHeader(f.tokenStatus)
		}
		fmt.Fprint(w, f.tokenBody)
	})
	mux.HandleFunc("/v1.0/me/messages", func(w http.ResponseWriter, r *http.Request) {
		f.authHeader = r.Header.Get("Authorization")
		f.top = r.URL.Query().Get("$top")
		f.selectQ = r.URL.Query().Get("$select")
		f.listCalls++
		if f.listStatus != 0 {
			w.WriteHeader(f.listStatus)
		}
		fmt.Fprint(w, f.listBody)
	})
	return mux
}

func newTestProvider(srv *httptest.Server) *Provider {
	cfg := Config{
		TokenURL:   srv.URL + "/token",
		APIBaseURL: srv.URL + "/v1.0",
		Scope:      DefaultScope,
	}
	return New(cfg, srv.Client(), email.NoRetry, testLogger())
}

var testMailbox = email.GraphMailbox{
	Name:         "outlook",
	Active:       true,
	ClientID:     "client-123",
	ClientSecret: "shh",
	RefreshToken: "refresh-abc",
}

func TestFetch(t *testing.T) {
	fake := &fakeGraph{
		tokenBody: `{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`,
		listBody: `{"value":[
			{"subject":"Login code","bodyPreview":"Your code is 998877","receivedDateTime":"2025-01-01T00:00:00Z",
			 "from":{"emailAddress":{"name":"Microsoft","address":"account@microsoft.com"}},
			 "body":{"contentType":"html","content":"<p>ignored</p>"}},
			{"subject":"","bodyPreview":"","receivedDateTime":"2025-01-02T08:00:00Z",
			 "from":{"emailAddress":{"name":"Shop","address":"shop@example.com"}},
			 "body":{"contentType":"html","content":"<html><head><style>p{}</style></head><body><p>Hello</p>\n<p>World</p></body></html>"}},
			{"receivedDateTime":"2025-01-03T08:00:00Z",
			 "from":{"emailAddress":{"name":"Empty","address":"empty@example.com"}},
			 "body":{"contentType":"text","content":""}}
		]}`,
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	msgs, err := newTestProvider(srv).Fetch(context.Background(), testMailbox, 4)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	wantForm := map[string]string{
		"client_id":     "client-123",
		"client_secret": "shh",
		"refresh_token": "refresh-abc",
		"grant_type":    "refresh_token",
		"scope":         DefaultScope,
	}
	for k, v := range wantForm {
		if fake.form[k] != v {
			t.Errorf("token form %s = %q, want %q", k, fake.form[k], v)
		}
	}

	if fake.authHeader != "Bearer at-1" {
		t.Errorf("Authorization = %q, want %q", fake.authHeader, "Bearer at-1")
	}
	if fake.top != "4" {
		t.Errorf("$top = %q, want 4", fake.top)
	}
	if fake.selectQ != messageFields {
		t.Errorf("$select = %q, want %q", fake.selectQ, messageFields)
	}

	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].From != "Microsoft <account@microsoft.com>" {
		t.Errorf("From = %q", msgs[0].From)
	}
	if msgs[0].BodyText != "Your code is 998877" {
		t.Errorf("expected bodyPreview, got %q", msgs[0].BodyText)
	}
	if !msgs[0].SentAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("SentAt = %v", msgs[0].SentAt)
	}
	if msgs[1].BodyText != "Hello World" {
		t.Errorf("expected HTML body converted to text, got %q", msgs[1].BodyText)
	}
	if msgs[2].BodyText != email.NoContent {
		t.Errorf("expected placeholder, got %q", msgs[2].BodyText)
	}
}

func TestFetch_AuthFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "error description surfaced",
			status:      http.StatusBadRequest,
			body:        `{"error":"invalid_grant","error_description":"AADSTS70000: refresh token expired"}`,
			wantMessage: "AADSTS70000: refresh token expired",
		},
		{
			name:        "error code only",
			status:      http.StatusBadRequest,
			body:        `{"error":"invalid_client"}`,
			wantMessage: "invalid_client",
		},
		{
			name:        "missing access_token",
			status:      http.StatusOK,
			body:        `{"token_type":"Bearer"}`,
			wantMessage: "token response missing access_token",
		},
		{
			name:        "non-JSON body",
			status:      http.StatusBadRequest,
			body:        `<html>bad request</html>`,
			wantMessage: "token endpoint did not return JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeGraph{tokenStatus: tt.status, tokenBody: tt.body, listBody: `{"value":[]}`}
			srv := httptest.NewServer(fake.handler())
			defer srv.Close()

			_, err := newTestProvider(srv).Fetch(context.Background(), testMailbox, 5)
			if !email.IsCategory(err, email.CategoryAuth) {
				t.Fatalf("expected auth error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMessage) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMessage)
			}
			if fake.authHeader != "" {
				t.Error("messages endpoint must not be called after a failed refresh")
			}
		})
	}
}

func TestFetch_MissingValueArray(t *testing.T) {
	fake := &fakeGraph{
		tokenBody: `{"access_token":"at-1"}`,
		listBody:  `{"error":{"code":"InvalidAuthenticationToken"}}`,
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	_, err := newTestProvider(srv).Fetch(context.Background(), testMailbox, 5)
	if !email.IsCategory(err, email.CategoryParse) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestFetch_ListStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		category email.Category
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, category: email.CategoryAuth},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, category: email.CategoryAuth},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":{"code":"BadRequest"}}`, category: email.CategoryTransport},
		{name: "not found", status: http.StatusNotFound, body: `{"error":{"code":"ResourceNotFound"}}`, category: email.CategoryTransport},
		{name: "throttled", status: http.StatusTooManyRequests, body: `{"error":{"code":"TooManyRequests"}}`, category: email.CategoryTransport},
		{name: "server error", status: http.StatusServiceUnavailable, body: `oops`, category: email.CategoryTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeGraph{tokenBody: `{"access_token":"at-1"}`, listStatus: tt.status, listBody: tt.body}
			srv := httptest.NewServer(fake.handler())
			defer srv.Close()

			_, err := newTestProvider(srv).Fetch(context.Background(), testMailbox, 5)
			if !email.IsCategory(err, tt.category) {
				t.Errorf("expected %s error, got %v", tt.category, err)
			}
		})
	}
}

func TestFetch_RetriesThrottledList(t *testing.T) {
	fake := &fakeGraph{
		tokenBody:  `{"access_token":"at-1"}`,
		listStatus: http.StatusTooManyRequests,
		listBody:   `{"error":{"code":"TooManyRequests"}}`,
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	cfg := Config{TokenURL: srv.URL + "/token", APIBaseURL: srv.URL + "/v1.0", Scope: DefaultScope}
	p := New(cfg, srv.Client(), email.RetryPolicy{Attempts: 2, Delay: time.Millisecond}, testLogger())

	_, err := p.Fetch(context.Background(), testMailbox, 5)
	if !email.IsCategory(err, email.CategoryTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if fake.listCalls != 2 {
		t.Errorf("list calls = %d, want 2", fake.listCalls)
	}
}

func TestFetch_MissingReceivedDateTime(t *testing.T) {
	fake := &fakeGraph{
		tokenBody: `{"access_token":"at-1"}`,
		listBody: `{"value":[
			{"receivedDateTime":"2025-01-01T00:00:00Z","bodyPreview":"ok","from":{"emailAddress":{"address":"a@example.com"}}},
			{"bodyPreview":"no date","from":{"emailAddress":{"address":"b@example.com"}}}
		]}`,
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	_, err := newTestProvider(srv).Fetch(context.Background(), testMailbox, 5)
	if !email.IsCategory(err, email.CategoryParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if !strings.Contains(err.Error(), "message 1 has no receivedDateTime") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestFetch_EmptyValueArray(t *testing.T) {
	fake := &fakeGraph{tokenBody: `{"access_token":"at-1"}`, listBody: `{"value":[]}`}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	msgs, err := newTestProvider(srv).Fetch(context.Background(), testMailbox, 5)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages, got %d", len(msgs))
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"<p>Hi <b>there</b></p>", "Hi there"},
		{"<div>line1</div>\n\n<div>line2</div>", "line1 line2"},
		{"<script>alert(1)</script>visible", "visible"},
		{"plain text", "plain text"},
	}

	for _, tt := range tests {
		if got := htmlToText(tt.input); got != tt.expected {
			t.Errorf("htmlToText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
