package filter

import (
	"reflect"
	"testing"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

func TestFilter_Sender(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		from     string
		wantIncl bool
	}{
		{name: "second keyword matches", filter: "a|b", from: "bxyz", wantIncl: true},
		{name: "no keyword matches", filter: "a|b", from: "cxyz", wantIncl: false},
		{name: "empty filter matches all", filter: "", from: "anyone@example.com", wantIncl: true},
		{name: "case insensitive", filter: "NETFLIX", from: "Info <info@netflix.com>", wantIncl: true},
		{name: "comma delimiter", filter: "apple, google", from: "no-reply@google.com", wantIncl: true},
		{name: "full-width comma delimiter", filter: "apple，google", from: "no-reply@google.com", wantIncl: true},
		{name: "only delimiters acts as empty", filter: " | ,，", from: "x@y.z", wantIncl: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.filter, "")
			m := &email.Message{From: tt.from, BodyText: "body"}

			result := f.Check(m)
			if result.Include != tt.wantIncl {
				t.Errorf("Include = %v, want %v", result.Include, tt.wantIncl)
			}
			if !tt.wantIncl && result.FailedOn != DimensionSender {
				t.Errorf("FailedOn = %q, want %q", result.FailedOn, DimensionSender)
			}
		})
	}
}

func TestFilter_Body(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		body     string
		wantIncl bool
	}{
		{name: "keyword in body", filter: "verification code|login", body: "Your verification code is 1234", wantIncl: true},
		{name: "keyword missing", filter: "verification code", body: "Weekly newsletter", wantIncl: false},
		{name: "empty filter", filter: "", body: "", wantIncl: true},
		{name: "substring match, not word match", filter: "code", body: "barcodes", wantIncl: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New("", tt.filter)
			if got := f.Match(&email.Message{From: "x", BodyText: tt.body}); got != tt.wantIncl {
				t.Errorf("Match = %v, want %v", got, tt.wantIncl)
			}
		})
	}
}

func TestFilter_AndAcrossDimensions(t *testing.T) {
	f := New("netflix", "code")

	tests := []struct {
		name     string
		msg      email.Message
		wantIncl bool
		failedOn Dimension
	}{
		{"both match", email.Message{From: "info@netflix.com", BodyText: "your code"}, true, ""},
		{"sender only", email.Message{From: "info@netflix.com", BodyText: "new shows"}, false, DimensionBody},
		{"body only", email.Message{From: "spam@example.com", BodyText: "your code"}, false, DimensionSender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := f.Check(&tt.msg)
			if r.Include != tt.wantIncl {
				t.Errorf("Include = %v, want %v", r.Include, tt.wantIncl)
			}
			if r.FailedOn != tt.failedOn {
				t.Errorf("FailedOn = %q, want %q", r.FailedOn, tt.failedOn)
			}
		})
	}
}

func TestFilter_ApplyPreservesOrderAndDuplicates(t *testing.T) {
	msgs := []email.Message{
		{From: "a@x.com", BodyText: "1"},
		{From: "b@x.com", BodyText: "2"},
		{From: "a@x.com", BodyText: "1"},
		{From: "c@x.com", BodyText: "3"},
		{From: "a@x.com", BodyText: "4"},
	}

	got := New("a@|c@", "").Apply(msgs)
	var bodies []string
	for _, m := range got {
		bodies = append(bodies, m.BodyText)
	}

	want := []string{"1", "1", "3", "4"}
	if !reflect.DeepEqual(bodies, want) {
		t.Errorf("Apply() bodies = %v, want %v", bodies, want)
	}

	if out := New("", "").Apply(nil); len(out) != 0 {
		t.Errorf("expected empty result for nil input, got %d", len(out))
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		raw      string
		expected []string
	}{
		{"", nil},
		{"A|b", []string{"a", "b"}},
		{" Netflix , Disney ，HBO ", []string{"netflix", "disney", "hbo"}},
		{"||a||", []string{"a"}},
		{"two words|x", []string{"two words", "x"}},
	}

	for _, tt := range tests {
		if got := SplitKeywords(tt.raw); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("SplitKeywords(%q) = %v, want %v", tt.raw, got, tt.expected)
		}
	}
}

func TestGetStats(t *testing.T) {
	f := New("netflix", "code")
	msgs := []email.Message{
		{From: "netflix", BodyText: "code"},
		{From: "netflix", BodyText: "promo"},
		{From: "other", BodyText: "code"},
	}

	stats := f.GetStats(msgs)
	want := Stats{Total: 3, Included: 1, RejectedSender: 1, RejectedBody: 1}
	if stats != want {
		t.Errorf("GetStats() = %+v, want %+v", stats, want)
	}
}
