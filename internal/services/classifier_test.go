package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/matchpoint-backend/internal/clients/groq"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
)

func TestMatchPersonalityLabel(t *testing.T) {
	cases := []struct {
		name  string
		label string
		want  string
	}{
		{"exact", "The Analyst", "The Analyst"},
		{"substring", "I would say this person is The Visionary!", "The Visionary"},
		{"case insensitive", "the guardian", "The Guardian"},
		{"unmatched", "Totally Unknown Type", "The Peacemaker"},
		{"empty", "", "The Peacemaker"},
		{"whitespace", "  The Empath  ", "The Empath"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchPersonalityLabel(tc.label); got.TypeName != tc.want {
				t.Fatalf("matchPersonalityLabel(%q) = %q, want %q", tc.label, got.TypeName, tc.want)
			}
		})
	}
}

func newTestGroqClient(t *testing.T, handler http.HandlerFunc) groq.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("GROQ_BASE_URL", srv.URL)
	client, err := groq.NewClient(logger.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func chatReply(content string) string {
	return `{"choices":[{"message":{"content":` + jsonQuote(content) + `}}]}`
}

func jsonQuote(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		case '\n':
			out += `\n`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

func TestClassifyPersonalityUsesUpstreamLabel(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("The Adventurer")))
	})
	svc := NewClassifierService(client, metrics.NopRecorder{}, logger.Nop())

	result := svc.ClassifyPersonality(context.Background(), []QuizAnswer{
		{Question: "Weekend plans?", Answer: "spontaneous road trip", Type: "freeResponse"},
	})
	if result.TypeName != "The Adventurer" {
		t.Fatalf("got %q", result.TypeName)
	}
}

func TestClassifyPersonalityFallsBackOnUpstreamError(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	svc := NewClassifierService(client, metrics.NopRecorder{}, logger.Nop())

	result := svc.ClassifyPersonality(context.Background(), []QuizAnswer{{Question: "q", Answer: "a"}})
	if result.TypeName != "The Peacemaker" {
		t.Fatalf("expected default type, got %q", result.TypeName)
	}
}

func TestClassifyPersonalityWithoutClient(t *testing.T) {
	svc := NewClassifierService(nil, metrics.NopRecorder{}, logger.Nop())
	result := svc.ClassifyPersonality(context.Background(), nil)
	if result.TypeName != "The Peacemaker" {
		t.Fatalf("expected default type, got %q", result.TypeName)
	}
}

func TestAnalyzeBioSafetyParsesFencedJSON(t *testing.T) {
	payload := "```json\n{\"is_safe\": false, \"risk_score\": 80, \"issues_found\": [\"phone number\"], \"severity\": \"danger\", \"message\": \"contains a phone number\", \"suggestions\": [\"remove it\"]}\n```"
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply(payload)))
	})
	svc := NewClassifierService(client, metrics.NopRecorder{}, logger.Nop())

	report, fallback := svc.AnalyzeBioSafety(context.Background(), "call me at 555-0100")
	if fallback {
		t.Fatal("valid payload should not fall back")
	}
	if report.IsSafe || report.RiskScore != 80 || report.Severity != "danger" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.IssuesFound) != 1 || report.IssuesFound[0] != "phone number" {
		t.Fatalf("issues: %v", report.IssuesFound)
	}
}

func TestAnalyzeBioSafetyFallsBackOnGarbage(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("sorry, I cannot answer that")))
	})
	svc := NewClassifierService(client, metrics.NopRecorder{}, logger.Nop())

	report, fallback := svc.AnalyzeBioSafety(context.Background(), "hello")
	if !fallback {
		t.Fatal("non-JSON payload must fall back")
	}
	if !report.IsSafe || report.Severity != "safe" {
		t.Fatalf("fallback report must be safe: %+v", report)
	}
}

func TestEnhanceBioFallbackOnUpstreamFailure(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	svc := NewClassifierService(client, metrics.NopRecorder{}, logger.Nop())

	enhancement, fallback := svc.EnhanceBio(context.Background(), "hi")
	if !fallback {
		t.Fatal("upstream failure must fall back")
	}
	if len(enhancement.Suggestions) != 3 || enhancement.QualityScore != 7 {
		t.Fatalf("unexpected fallback enhancement: %+v", enhancement)
	}
}

func TestStripJSONFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", "Here you go: ```json\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripJSONFences(tc.in); got != tc.want {
				t.Fatalf("stripJSONFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
