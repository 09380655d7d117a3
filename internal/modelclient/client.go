// Package modelclient is a thin wrapper over an OpenAI-compatible chat
// completions endpoint (C4 in the core design): it sends a message thread
// with an optional inline image and returns the split (thinking, action)
// halves of the reply.
package modelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is one turn of the conversation. Content is either a plain
// string or an ordered []ContentPart for multimodal turns.
type Message struct {
	Role    string
	Content any
}

// ContentPart is one chunk of a multimodal message: either {"type":
// "text"} or {"type": "image_url"}.
type ContentPart struct {
	Type     string
	Text     string
	ImageURL string // data:image/png;base64,<payload>
}

// ModelError wraps a network, auth, or server failure talking to the
// endpoint. It is always fatal to the calling task.
type ModelError struct {
	Op  string
	Err error
}

func (e *ModelError) Error() string { return fmt.Sprintf("model client: %s: %v", e.Op, e.Err) }
func (e *ModelError) Unwrap() error { return e.Err }

// Config is the configuration surface §4.4 enumerates.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	MaxTokens      int
	HasMaxTokens   bool
	Temperature    float64
	HasTemperature bool
	CompressImage  bool
	MaxImageDim    uint // used only when CompressImage is set; 0 means the package default
}

// Client sends a single non-streaming chat-completions request per call.
type Client struct {
	cfg  Config
	http *http.Client
}

// New builds a Client. A bare host (no path) has "/v1" appended
// automatically, matching what most OpenAI-compatible gateways expect.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = normalizeBaseURL(cfg.BaseURL)
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func normalizeBaseURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return base
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	// A bare host like "http://localhost:8000" gets /v1 appended; a host
	// that already carries some other path (a gateway prefix) is left
	// alone.
	trimmed := strings.TrimPrefix(strings.TrimPrefix(base, "https://"), "http://")
	if !strings.Contains(trimmed, "/") {
		return base + "/v1"
	}
	return base
}

type chatRequest struct {
	Model       string          `json:"model"`
	Messages    []wireMessage   `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type wireContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send posts messages as a single chat-completions request and returns the
// reply split into its thinking and action halves.
func (c *Client) Send(ctx context.Context, messages []Message) (thinking, actionText string, err error) {
	if c.cfg.CompressImage {
		messages, err = compressImageParts(messages, c.cfg.MaxImageDim)
		if err != nil {
			return "", "", &ModelError{Op: "compress image", Err: err}
		}
	}

	wire := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wire = append(wire, wireMessage{Role: m.Role, Content: toWireContent(m.Content)})
	}

	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: wire,
	}
	if c.cfg.HasMaxTokens {
		reqBody.MaxTokens = c.cfg.MaxTokens
	}
	if c.cfg.HasTemperature {
		reqBody.Temperature = c.cfg.Temperature
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", "", &ModelError{Op: "marshal request", Err: err}
	}

	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", "", &ModelError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	apiKey := c.cfg.APIKey
	if apiKey == "" {
		apiKey = "placeholder"
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", &ModelError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", &ModelError{Op: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", "", &ModelError{Op: "http status", Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 500))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", &ModelError{Op: "unmarshal response", Err: err}
	}
	if parsed.Error != nil {
		return "", "", &ModelError{Op: "api error", Err: fmt.Errorf("%s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", "", &ModelError{Op: "empty response", Err: fmt.Errorf("no choices returned")}
	}

	reply := parsed.Choices[0].Message.Content
	thinking, actionText = SplitThinkingAndAction(reply)
	return thinking, actionText, nil
}

func toWireContent(content any) any {
	switch v := content.(type) {
	case string:
		return v
	case []ContentPart:
		parts := make([]wireContentPart, 0, len(v))
		for _, p := range v {
			switch p.Type {
			case "image_url":
				parts = append(parts, wireContentPart{Type: "image_url", ImageURL: &wireImageURL{URL: p.ImageURL}})
			default:
				parts = append(parts, wireContentPart{Type: "text", Text: p.Text})
			}
		}
		return parts
	default:
		return v
	}
}

// SplitThinkingAndAction implements §4.4's reply-splitting rule: split on
// the last "</think>" / first "<answer>" pair. Absent either tag, the
// whole reply is the action and thinking is empty.
func SplitThinkingAndAction(reply string) (thinking, actionText string) {
	lastThinkClose := strings.LastIndex(reply, "</think>")
	firstAnswerOpen := strings.Index(reply, "<answer>")
	if lastThinkClose == -1 || firstAnswerOpen == -1 {
		return "", strings.TrimSpace(reply)
	}

	if thinkOpen := strings.Index(reply, "<think>"); thinkOpen != -1 && thinkOpen < lastThinkClose {
		thinking = strings.TrimSpace(reply[thinkOpen+len("<think>") : lastThinkClose])
	}

	rest := reply[firstAnswerOpen+len("<answer>"):]
	if closeIdx := strings.Index(rest, "</answer>"); closeIdx != -1 {
		actionText = strings.TrimSpace(rest[:closeIdx])
	} else {
		actionText = strings.TrimSpace(rest)
	}
	return thinking, actionText
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
