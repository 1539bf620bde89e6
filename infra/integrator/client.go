// Package integrator calls the upstream integration API that issues
// embeddable links for rider sessions.
package integrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DevBash1/trackpadal/core/model"
	"github.com/DevBash1/trackpadal/infra/logger"
)

// Config defines the upstream integration endpoint and credentials.
type Config struct {
	APIURL         string `json:"api_url"`
	EmbedURL       string `json:"embed_url"`
	BasicKey       string `json:"basic_key"`
	ProKey         string `json:"pro_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if c.EmbedURL == "" {
		return fmt.Errorf("embed_url is required")
	}
	return nil
}

// Client creates integrations over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

// New creates a Client from the configuration.
func New(cfg Config) *Client {
	cfg.SetDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:  logger.New("integrator"),
	}
}

type createRequest struct {
	AppName        string         `json:"appName"`
	AppDescription string         `json:"appDescription"`
	AppIcon        string         `json:"appIcon"`
	AppColor       string         `json:"appColor"`
	Metadata       map[string]any `json:"metadata"`
}

type createResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// CreateIntegration registers the session with the upstream API and
// returns the embeddable URL for it.
func (c *Client) CreateIntegration(ctx context.Context, tier model.Tier, session string) (string, error) {
	key := c.cfg.BasicKey
	planName := "Basic"
	if tier == model.TierPro {
		key = c.cfg.ProKey
		planName = "Pro"
	}

	body, err := json.Marshal(createRequest{
		AppName:        "TrackPedal",
		AppDescription: fmt.Sprintf("TrackPedal %s Plan", planName),
		AppIcon:        "https://paydantic.io/Paydantic_Basic_Logo.svg",
		AppColor:       "#ffde59",
		Metadata:       map[string]any{"session": session},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("integration request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("integration request: unexpected status %d", resp.StatusCode)
	}

	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode integration response: %w", err)
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("integration response missing id")
	}
	return c.cfg.EmbedURL + "/" + out.Data.ID, nil
}
