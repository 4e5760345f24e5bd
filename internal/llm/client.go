// Package llm provides the HTTP client for the OpenAI Responses API,
// call configuration and telemetry, and salvage extraction of JSON from
// noisy model output.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Request holds the parameters for one model generation call.
type Request struct {
	// System is the system instruction string.
	System string

	// UserBlocks are labeled text blocks sent as a single user turn,
	// one input_text entry per block.
	UserBlocks []string

	// Format optionally constrains the output to a JSON schema via the
	// provider's structured-output directive.
	Format *SchemaFormat
}

// SchemaFormat names a JSON schema the model output must conform to.
type SchemaFormat struct {
	Name   string
	Schema json.RawMessage
}

// Client provides access to a text-generation provider.
type Client interface {
	// Respond sends a single request and returns the provider envelope.
	// One attempt only: failures are reported directly, never retried.
	Respond(ctx context.Context, req Request) (*Response, error)
}

// openAIClient implements Client against the OpenAI Responses API.
type openAIClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewOpenAIClient creates a Client that talks to the Responses API.
func NewOpenAIClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &openAIClient{
		cfg: cfg,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		},
		observer: observer,
	}
}

// Wire types for POST {base}/responses.

type responsesRequest struct {
	Model string      `json:"model"`
	Input []inputTurn `json:"input"`
	Text  *textFormat `json:"text,omitempty"`
}

type inputTurn struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type inputText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type textFormat struct {
	Format schemaDirective `json:"format"`
}

type schemaDirective struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

// Response is the provider response envelope. Only the fields needed to
// recover output text are decoded; everything else is ignored.
type Response struct {
	Model      string       `json:"model"`
	Output     []outputItem `json:"output"`
	OutputText string       `json:"output_text"`
}

type outputItem struct {
	Content json.RawMessage `json:"content"`
}

type outputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (c *openAIClient) Respond(ctx context.Context, req Request) (*Response, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	start := time.Now()
	resp, err := c.doRequest(ctx, c.buildBody(req))
	latency := time.Since(start).Milliseconds()

	c.observer.OnCallComplete(CallEvent{
		Model:     c.cfg.Model,
		LatencyMs: latency,
		Success:   err == nil,
		ErrorCode: errorCode(err),
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *openAIClient) buildBody(req Request) responsesRequest {
	blocks := make([]inputText, len(req.UserBlocks))
	for i, b := range req.UserBlocks {
		blocks[i] = inputText{Type: "input_text", Text: b}
	}

	body := responsesRequest{
		Model: c.cfg.Model,
		Input: []inputTurn{
			{Role: "system", Content: req.System},
			{Role: "user", Content: blocks},
		},
	}
	if req.Format != nil {
		body.Text = &textFormat{Format: schemaDirective{
			Type:   "json_schema",
			Name:   req.Format.Name,
			Schema: req.Format.Schema,
			Strict: true,
		}}
	}
	return body
}

func (c *openAIClient) doRequest(ctx context.Context, body responsesRequest) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.cfg.BaseURL + "/responses"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: httpResp.StatusCode, Body: string(respBody)}
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding response envelope: %w", err)
	}
	return &resp, nil
}

// Text flattens the output items into a single string: all text-typed
// content entries with non-empty trimmed text, joined with newlines. If
// that yields nothing it falls back to the provider's flattened
// output_text field.
func (r *Response) Text() string {
	var parts []string
	for _, item := range r.Output {
		for _, c := range item.contents() {
			if c.Type != "output_text" && c.Type != "text" {
				continue
			}
			if strings.TrimSpace(c.Text) == "" {
				continue
			}
			parts = append(parts, c.Text)
		}
	}
	out := strings.Join(parts, "\n")
	if out == "" {
		out = r.OutputText
	}
	return strings.TrimSpace(out)
}

// contents decodes an output item's content, which providers emit either
// as a list of typed entries or as a bare string.
func (i outputItem) contents() []outputContent {
	if len(i.Content) == 0 {
		return nil
	}
	var list []outputContent
	if err := json.Unmarshal(i.Content, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(i.Content, &s); err == nil {
		return []outputContent{{Type: "output_text", Text: s}}
	}
	return nil
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAPIKey):
		return "CONFIG"
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	default:
		var te *TransportError
		if errors.As(err, &te) {
			return fmt.Sprintf("HTTP_%d", te.StatusCode)
		}
		return "UNKNOWN"
	}
}
