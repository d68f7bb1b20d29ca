// Package remote implements the rate-limited, retrying call to the remote
// LLM that turns a snippet plus local candidates into one of the six
// per-DocType structured extraction results. Caching of results is done by
// the caller (the orchestrator), not here.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/adverant/legalextract/internal/errors"
	"github.com/adverant/legalextract/internal/logging"
	"github.com/adverant/legalextract/internal/model"
	"github.com/adverant/legalextract/internal/schema"
)

const (
	defaultEndpoint  = "https://api.openai.com/v1/chat/completions"
	maxAttempts      = 4
	initialBackoffMs = 400
	cap429BackoffMs  = 5000

	systemMessage = "You extract structured legal-intake data from OCR text. " +
		"Respond only by calling the provided function with minified JSON arguments."
)

// Client dispatches extraction requests against a chat-completions style
// endpoint, serializing all callers on one shared rate.Limiter so that no
// more than qps requests leave the process per second, regardless of how
// many workers call Extract concurrently.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	limiter    *rate.Limiter
	logger     *logging.Logger
}

// NewClient builds a Client dispatching at most qps requests/second with the
// given per-request timeout.
func NewClient(apiKey, modelName string, qps float64, timeout time.Duration, logger *logging.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   defaultEndpoint,
		apiKey:     apiKey,
		model:      modelName,
		limiter:    rate.NewLimiter(rate.Limit(qps), 1),
		logger:     logger,
	}
}

type chatRequest struct {
	Model       string                 `json:"model"`
	Temperature float64                `json:"temperature"`
	Messages    []chatMessage          `json:"messages"`
	Functions   []schema.FunctionDef   `json:"functions"`
	FunctionCall map[string]string     `json:"function_call"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content      string `json:"content"`
			FunctionCall struct {
				Arguments string `json:"arguments"`
			} `json:"function_call"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract dispatches one extraction request for docType, truncating snippet
// to maxSnippetChars bytes first (candidates are sent as given), and returns
// the parsed ExtractionResult. Errors are one of errors.RemoteError, errors.TransportError,
// or errors.ParseError.
func (c *Client) Extract(ctx context.Context, docType model.DocType, tag string, candidates model.LocalCandidates, snippet string, maxSnippetChars int) (model.ExtractionResult, error) {
	if len(snippet) > maxSnippetChars {
		snippet = snippet[:maxSnippetChars]
	}

	candJSON, err := json.Marshal(candidates)
	if err != nil {
		return nil, errors.New(errors.ParseError, "failed to marshal local candidates", err)
	}

	functions, forced := schema.ForDocType(docType)
	userContent := fmt.Sprintf("Document type guess: %s. Keep output minified JSON only.\n%s\n---\n%s",
		tag, string(candJSON), snippet)

	reqBody := chatRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: userContent},
		},
		Functions:    functions,
		FunctionCall: map[string]string{"name": forced},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.New(errors.ParseError, "failed to marshal remote request", err)
	}

	backoffMs := initialBackoffMs
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.New(errors.TransportError, "rate limiter wait cancelled", err)
		}

		status, body, err := c.dispatch(ctx, payload)
		if err != nil {
			return nil, errors.New(errors.TransportError, "remote request failed", err)
		}

		if status == http.StatusOK {
			return parseChoice(body)
		}

		lastErr = fmt.Errorf("HTTP %d: %s", status, truncateForLog(body))

		if attempt == maxAttempts {
			return nil, errors.Newf(errors.RemoteError, lastErr, "remote extractor failed after %d attempts", maxAttempts)
		}

		switch {
		case status == http.StatusTooManyRequests:
			c.logger.Warn("remote rate-limited, backing off", "attempt", attempt, "backoff_ms", backoffMs)
			if !sleep(ctx, backoffMs) {
				return nil, errors.New(errors.TransportError, "cancelled during backoff", ctx.Err())
			}
			backoffMs *= 2
			if backoffMs > cap429BackoffMs {
				backoffMs = cap429BackoffMs
			}
		case status >= 500:
			c.logger.Warn("remote server error, retrying", "attempt", attempt, "status", status, "backoff_ms", backoffMs)
			if !sleep(ctx, backoffMs) {
				return nil, errors.New(errors.TransportError, "cancelled during backoff", ctx.Err())
			}
			backoffMs *= 2
		default:
			// Non-retryable 4xx (bad request, auth failure, etc.): fail now
			// rather than burn the remaining attempt budget on a request
			// that cannot succeed.
			return nil, errors.Newf(errors.RemoteError, lastErr, "remote extractor rejected request with HTTP %d", status)
		}
	}

	return nil, errors.New(errors.RemoteError, "remote extractor exhausted retries", lastErr)
}

func (c *Client) dispatch(ctx context.Context, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func parseChoice(body []byte) (model.ExtractionResult, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.New(errors.ParseError, "failed to parse chat-completions envelope", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.ParseError, "chat-completions response had no choices", nil)
	}

	msg := resp.Choices[0].Message
	raw := msg.FunctionCall.Arguments
	if raw == "" {
		raw = msg.Content
	}

	result, err := parseJSONLenient(raw)
	if err != nil {
		return nil, errors.New(errors.ParseError, "failed to parse extraction arguments", err)
	}
	return result, nil
}

// parseJSONLenient parses raw as a JSON object, falling back to brace
// recovery (first '{' through last '}') when raw carries surrounding prose
// or markdown fencing around the JSON payload.
func parseJSONLenient(raw string) (model.ExtractionResult, error) {
	var out model.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func sleep(ctx context.Context, ms int) bool {
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return true
	case <-ctx.Done():
		return false
	}
}

func truncateForLog(body []byte) string {
	const max = 500
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
