package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-realtime/internal/auth"
)

// SendMessageResponse is the REST reply to a message send. Servers answer
// with one of several shapes; the human-readable body is extracted in
// priority order by ReplyText.
type SendMessageResponse struct {
	Data *struct {
		ID      string `json:"id,omitempty"`
		Reply   string `json:"reply,omitempty"`
		Message string `json:"message,omitempty"`
		Content string `json:"content,omitempty"`
	} `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ReplyText returns the first non-empty field among data.reply, data.message,
// data.content and the top-level message, or "" when none is present.
func (r *SendMessageResponse) ReplyText() string {
	if r == nil {
		return ""
	}
	if r.Data != nil {
		for _, s := range []string{r.Data.Reply, r.Data.Message, r.Data.Content} {
			if s != "" {
				return s
			}
		}
	}
	return r.Message
}

// Client calls the storefront REST backend. Only the endpoints the realtime
// core depends on are wrapped here.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  auth.TokenSource
}

func NewClient(baseURL string, tokens auth.TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
}

// SendAIMessage posts one user message to the AI chat endpoint and returns
// the raw response shape for the sync engine to interpret.
func (c *Client) SendAIMessage(ctx context.Context, body string) (*SendMessageResponse, error) {
	payload, err := json.Marshal(map[string]string{"message": body})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/ai/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ai message send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out SendMessageResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("ai message response decode: %w", err)
	}
	return &out, nil
}
