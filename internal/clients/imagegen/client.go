package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/studiostory/studiostory-backend/internal/platform/envutil"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

const (
	StatusPending  = "pending"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

type StartRequest struct {
	Prompt     string `json:"prompt"`
	BaseImage  string `json:"base_image,omitempty"`
	OutputMode string `json:"output_mode,omitempty"`
}

type StartResponse struct {
	GenerationID string `json:"generation_id"`
}

// CheckResponse is the polling payload. URL and VideoURL are only set once
// status is complete.
type CheckResponse struct {
	Status   string `json:"status"`
	URL      string `json:"url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Client wraps the asynchronous generation provider: Start enqueues a job and
// Check polls it until a terminal status.
type Client interface {
	Start(ctx context.Context, req StartRequest) (*StartResponse, error)
	Check(ctx context.Context, generationID string) (*CheckResponse, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL: envutil.String("IMAGEGEN_API_URL", ""),
		APIKey:  envutil.String("IMAGEGEN_API_KEY", ""),
		Timeout: envutil.Duration("IMAGEGEN_TIMEOUT", 30*time.Second),
	}
}

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
		log:  baseLog.With("client", "ImageGen"),
	}
}

var ErrDisabled = fmt.Errorf("imagegen: no api url configured")

func (c *client) Start(ctx context.Context, req StartRequest) (*StartResponse, error) {
	if !c.cfg.Enabled() {
		return nil, ErrDisabled
	}
	var out StartResponse
	if err := c.post(ctx, "/generations", req, &out); err != nil {
		return nil, err
	}
	if out.GenerationID == "" {
		return nil, fmt.Errorf("imagegen: provider returned no generation id")
	}
	return &out, nil
}

func (c *client) Check(ctx context.Context, generationID string) (*CheckResponse, error) {
	if !c.cfg.Enabled() {
		return nil, ErrDisabled
	}
	var out CheckResponse
	if err := c.get(ctx, "/generations/"+generationID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("Generation provider returned non-2xx", "status", resp.StatusCode, "path", req.URL.Path)
		return fmt.Errorf("imagegen: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
