package modelclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSplitThinkingAndAction(t *testing.T) {
	cases := []struct {
		name          string
		reply         string
		wantThinking  string
		wantAction    string
	}{
		{
			name:         "both tags present",
			reply:        "<think>reasoning here</think><answer>do(action=\"Back\")</answer>",
			wantThinking: "reasoning here",
			wantAction:   `do(action="Back")`,
		},
		{
			name:         "no tags at all",
			reply:        `do(action="Home")`,
			wantThinking: "",
			wantAction:   `do(action="Home")`,
		},
		{
			name:         "answer without closing tag",
			reply:        `<think>t</think><answer>do(action="Back")`,
			wantThinking: "t",
			wantAction:   `do(action="Back")`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			thinking, action := SplitThinkingAndAction(tc.reply)
			if thinking != tc.wantThinking || action != tc.wantAction {
				t.Fatalf("got (%q, %q), want (%q, %q)", thinking, action, tc.wantThinking, tc.wantAction)
			}
		})
	}
}

func TestNormalizeBaseURLAppendsV1(t *testing.T) {
	if got := normalizeBaseURL("http://localhost:8000"); got != "http://localhost:8000/v1" {
		t.Fatalf("got %q", got)
	}
	if got := normalizeBaseURL("http://localhost:8000/v1"); got != "http://localhost:8000/v1" {
		t.Fatalf("got %q", got)
	}
	if got := normalizeBaseURL("http://localhost:8000/custom/gateway"); got != "http://localhost:8000/custom/gateway" {
		t.Fatalf("got %q", got)
	}
}

func TestClientSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["model"] != "test-model" {
			t.Fatalf("unexpected model: %v", body["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"<think>ok</think><answer>do(action=\"Home\")</answer>"}}]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "test-model"})
	thinking, action, err := c.Send(context.Background(), []Message{
		{Role: "system", Content: "you are an agent"},
		{Role: "user", Content: "tap home"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if thinking != "ok" || action != `do(action="Home")` {
		t.Fatalf("got (%q, %q)", thinking, action)
	}
}

func TestClientSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "test-model"})
	_, _, err := c.Send(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, ok := err.(*ModelError); !ok {
		t.Fatalf("expected *ModelError, got %T", err)
	}
}

func TestClientSendMultimodalContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		messages := body["messages"].([]any)
		userMsg := messages[0].(map[string]any)
		parts := userMsg["content"].([]any)
		if len(parts) != 2 {
			t.Fatalf("expected 2 content parts, got %d", len(parts))
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"do(action=\"Back\")"}}]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "test-model"})
	_, _, err := c.Send(context.Background(), []Message{
		{Role: "user", Content: []ContentPart{
			{Type: "text", Text: "what do you see?"},
			{Type: "image_url", ImageURL: "data:image/png;base64,AAAA"},
		}},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestClientSendCompressesImageWhenEnabled(t *testing.T) {
	large := makeTestPNG(t, 2000, 1000)

	var sentURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		messages := body["messages"].([]any)
		userMsg := messages[0].(map[string]any)
		parts := userMsg["content"].([]any)
		imagePart := parts[1].(map[string]any)
		imageURL := imagePart["image_url"].(map[string]any)
		sentURL = imageURL["url"].(string)
		w.Write([]byte(`{"choices":[{"message":{"content":"do(action=\"Back\")"}}]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "test-model", CompressImage: true, MaxImageDim: 500})
	_, _, err := c.Send(context.Background(), []Message{
		{Role: "user", Content: []ContentPart{
			{Type: "text", Text: "what do you see?"},
			{Type: "image_url", ImageURL: "data:image/png;base64," + large},
		}},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if len(sentURL) <= len(prefix) {
		t.Fatalf("expected a non-empty image payload, got %q", sentURL)
	}
	sentPayload := sentURL[len(prefix):]
	if sentPayload == large {
		t.Fatalf("expected the image to be downsized before sending")
	}
}
