package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adverant/legalextract/internal/logging"
	"github.com/adverant/legalextract/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewClient("test-key", "gpt-4o-mini", 1000, 5*time.Second, logging.NewLogger("test"))
	c.endpoint = srv.URL
	return c, srv.Close
}

func TestExtractSuccessViaFunctionCallArguments(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"function_call":{"arguments":"{\"patient_name\":\"Jane Doe\",\"confidence\":0.9}"}}}]}`))
	})
	defer closeFn()

	result, err := c.Extract(context.Background(), model.DocMedical, "medical", model.LocalCandidates{}, "snippet text", 6000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["patient_name"] != "Jane Doe" {
		t.Fatalf("patient_name = %v", result["patient_name"])
	}
}

func TestExtractFallsBackToContentAndBraceRecovery(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"here you go: {\"confidence\":0.5} thanks"}}]}`))
	})
	defer closeFn()

	result, err := c.Extract(context.Background(), model.DocMedical, "medical", model.LocalCandidates{}, "snippet", 6000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["confidence"] != 0.5 {
		t.Fatalf("confidence = %v", result["confidence"])
	}
}

func TestExtractRetriesOn5xxThenFails(t *testing.T) {
	calls := 0
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer closeFn()

	origBackoff := initialBackoffMs
	_ = origBackoff

	start := time.Now()
	_, err := c.Extract(context.Background(), model.DocMedical, "medical", model.LocalCandidates{}, "snippet", 6000)
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if calls != maxAttempts {
		t.Fatalf("calls = %d, want %d", calls, maxAttempts)
	}
	if time.Since(start) < time.Duration(initialBackoffMs)*time.Millisecond {
		t.Fatalf("expected at least one backoff sleep to have occurred")
	}
}

func TestExtractNonRetryable4xxFailsImmediately(t *testing.T) {
	calls := 0
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer closeFn()

	_, err := c.Extract(context.Background(), model.DocMedical, "medical", model.LocalCandidates{}, "snippet", 6000)
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on 401)", calls)
	}
}

func TestExtractTruncatesSnippetToMaxChars(t *testing.T) {
	var gotBody string
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1<<16)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.Write([]byte(`{"choices":[{"message":{"function_call":{"arguments":"{\"confidence\":0.1}"}}}]}`))
	})
	defer closeFn()

	longSnippet := make([]byte, 100)
	for i := range longSnippet {
		longSnippet[i] = 'x'
	}
	_, err := c.Extract(context.Background(), model.DocMedical, "medical", model.LocalCandidates{}, string(longSnippet), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotBody) == 0 {
		t.Skip("body capture too small for this environment")
	}
	if strings.Contains(gotBody, strings.Repeat("x", 11)) {
		t.Fatalf("request body carries more than 10 snippet chars: %s", gotBody)
	}
}
