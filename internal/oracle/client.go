package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	scriberr "github.com/codescribe/codescribe/internal/errors"
	"github.com/codescribe/codescribe/internal/indexstore"
)

// Client is a minimal HTTP client for an Ollama-compatible runtime,
// speaking the non-streaming /api/chat endpoint.
type Client struct {
	httpClient *http.Client
	host       string
	model      string
	retry      scriberr.RetryConfig
}

// NewClient creates a client targeting the given host
// (e.g. http://127.0.0.1:11434).
func NewClient(host, model string, timeout time.Duration, maxRetries int) *Client {
	if host == "" {
		host = "http://127.0.0.1:11434"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	retry := scriberr.DefaultRetryConfig()
	if maxRetries >= 0 {
		retry.MaxRetries = maxRetries
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		host:       strings.TrimSuffix(host, "/"),
		model:      model,
		retry:      retry,
	}
}

// Structures aligned with Ollama /api/chat (non-streaming).
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}
type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// chat sends one request and returns the model's reply text.
// Transient failures (network errors, 5xx) are retried with backoff.
func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", scriberr.Wrap(scriberr.ErrCodeInternal, err)
	}

	var reply string
	err = scriberr.Retry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
		if err != nil {
			return scriberr.Wrap(scriberr.ErrCodeInternal, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return scriberr.OracleError("oracle request failed", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return scriberr.OracleError("failed to read oracle response", err)
		}
		if resp.StatusCode != http.StatusOK {
			return scriberr.OracleError(
				fmt.Sprintf("oracle returned status %d: %s", resp.StatusCode, truncate(string(data), 200)), nil)
		}

		var parsed chatResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return scriberr.Wrap(scriberr.ErrCodeOracleParse, fmt.Errorf("malformed oracle response: %w", err))
		}
		reply = parsed.Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Summarize returns a one-line description of file content.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	reply, err := c.chat(ctx,
		"You describe source files. Respond with exactly one short sentence and nothing else.",
		"Summarize this file in one line:\n\n"+content)
	if err != nil {
		return "", err
	}
	return firstLine(reply), nil
}

// Describe returns a longer description of a file.
func (c *Client) Describe(ctx context.Context, path, content string) (string, error) {
	reply, err := c.chat(ctx,
		"You describe source files. Respond with one or two plain-text paragraphs and nothing else.",
		fmt.Sprintf("Describe the purpose and contents of %s:\n\n%s", path, content))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// directoryDoc is the JSON shape requested for directory descriptions.
type directoryDoc struct {
	Summary string `json:"summary"`
	Detail  string `json:"detail"`
}

// DescribeDirectory produces a summary and detail for a directory from
// its members.
func (c *Client) DescribeDirectory(ctx context.Context, path string, members []indexstore.Member) (string, string, error) {
	var sb strings.Builder
	for _, m := range members {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", m.Name, m.Kind, m.Summary)
	}

	reply, err := c.chat(ctx,
		`You describe project directories. Respond with a JSON object {"summary": "...", "detail": "..."} and nothing else.`,
		fmt.Sprintf("Directory %s contains:\n%s", path, sb.String()))
	if err != nil {
		return "", "", err
	}

	var doc directoryDoc
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &doc); err != nil {
		return "", "", scriberr.Wrap(scriberr.ErrCodeOracleParse,
			fmt.Errorf("directory description is not valid JSON: %w", err))
	}
	if doc.Summary == "" {
		return "", "", scriberr.New(scriberr.ErrCodeOracleParse, "directory description missing summary", nil)
	}
	return doc.Summary, doc.Detail, nil
}

// Members extracts documented members from file content.
func (c *Client) Members(ctx context.Context, path, content string) ([]indexstore.Member, error) {
	reply, err := c.chat(ctx,
		`You list the top-level members of a source file. Respond with a JSON array of {"kind": "...", "name": "...", "summary": "..."} and nothing else.`,
		fmt.Sprintf("List the members of %s:\n\n%s", path, content))
	if err != nil {
		return nil, err
	}

	var members []indexstore.Member
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &members); err != nil {
		return nil, scriberr.Wrap(scriberr.ErrCodeOracleParse,
			fmt.Errorf("member list is not valid JSON: %w", err))
	}
	return members, nil
}

// firstLine trims the reply to its first non-empty line.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// stripCodeFence removes a surrounding markdown code fence, which models
// add even when asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
