package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/studiostory/studiostory-backend/internal/platform/envutil"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

// Client talks to a chat-completion style text model. GenerateJSON asks for a
// JSON-only reply and unmarshals it; model replies wrapped in code fences or
// prose are tolerated.
type Client interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
	GenerateJSON(ctx context.Context, system, prompt string, out any) error
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL: envutil.String("TEXTGEN_API_URL", ""),
		APIKey:  envutil.String("TEXTGEN_API_KEY", ""),
		Model:   envutil.String("TEXTGEN_MODEL", "gpt-4o-mini"),
		Timeout: envutil.Duration("TEXTGEN_TIMEOUT", 30*time.Second),
	}
}

// Enabled reports whether a remote model is configured. Callers are expected
// to degrade to local heuristics when it is not.
func (c Config) Enabled() bool { return c.BaseURL != "" }

type client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

func New(cfg Config, baseLog *logger.Logger) Client {
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  baseLog.With("client", "TextGen"),
	}
}

var ErrDisabled = fmt.Errorf("textgen: no api url configured")

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *client) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	if !c.cfg.Enabled() {
		return "", ErrDisabled
	}

	msgs := []chatMessage{}
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{Model: c.cfg.Model, Messages: msgs})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Text model returned non-200", "status", resp.StatusCode)
		return "", fmt.Errorf("textgen: status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("textgen: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("textgen: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("textgen: empty response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (c *client) GenerateJSON(ctx context.Context, system, prompt string, out any) error {
	text, err := c.GenerateText(ctx, system, prompt+"\n\nReply with JSON only.")
	if err != nil {
		return err
	}
	cleaned := ExtractJSON(text)
	if cleaned == "" {
		return fmt.Errorf("textgen: no JSON found in reply")
	}
	return json.Unmarshal([]byte(cleaned), out)
}

// StripCodeFences removes a leading/trailing markdown code fence, with or
// without a language tag.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language tag line.
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, " {[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSON pulls the first JSON object or array out of a model reply that
// may contain fences or surrounding prose.
func ExtractJSON(s string) string {
	s = StripCodeFences(s)
	start := -1
	for i, r := range s {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}
	open := rune(s[start])
	close := '}'
	if open == '[' {
		close = ']'
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := rune(s[i])
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
