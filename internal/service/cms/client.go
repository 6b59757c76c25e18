// Package cms mirrors user profiles into a headless CMS over its HTTP
// content API (Sanity-compatible query and mutate endpoints).
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config locates the CMS dataset. BaseURL overrides the default
// project endpoint, which tests point at a local server.
type Config struct {
	ProjectID  string
	Dataset    string
	Token      string
	APIVersion string
	BaseURL    string
}

// Enabled reports whether enough configuration is present to sync.
func (c Config) Enabled() bool {
	return (c.ProjectID != "" || c.BaseURL != "") && c.Dataset != ""
}

// UserDoc is the mirrored user document.
type UserDoc struct {
	ID         string `json:"_id,omitempty"`
	Type       string `json:"_type"`
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ImageURL   string `json:"imageUrl"`
}

// Client is a minimal content-API client: GROQ queries and mutations.
type Client struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

// NewClient builds a CMS client.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2025-03-01"
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

func (c *Client) endpoint(action string) string {
	base := c.cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.sanity.io", c.cfg.ProjectID)
	}
	return fmt.Sprintf("%s/v%s/data/%s/%s", strings.TrimRight(base, "/"), c.cfg.APIVersion, action, c.cfg.Dataset)
}

// FindUser looks up the mirrored document by external id or email.
// Returns nil when no document matches.
func (c *Client) FindUser(ctx context.Context, externalID, email string) (*UserDoc, error) {
	groq := `*[_type == "user" && (externalId == $externalId || email == $email)][0]`

	params := url.Values{}
	params.Set("query", groq)
	params.Set("$externalId", quoteParam(externalID))
	params.Set("$email", quoteParam(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("query")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build cms query: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query cms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("cms query responded with status %d", resp.StatusCode)
	}

	var payload struct {
		Result *UserDoc `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode cms query result: %w", err)
	}
	return payload.Result, nil
}

// CreateUser creates the mirrored document.
func (c *Client) CreateUser(ctx context.Context, doc UserDoc) error {
	doc.Type = "user"
	return c.mutate(ctx, []map[string]any{{"create": doc}})
}

// PatchUser sets fields on an existing mirrored document.
func (c *Client) PatchUser(ctx context.Context, id string, set map[string]any) error {
	return c.mutate(ctx, []map[string]any{{
		"patch": map[string]any{"id": id, "set": set},
	}})
}

func (c *Client) mutate(ctx context.Context, mutations []map[string]any) error {
	body, err := json.Marshal(map[string]any{"mutations": mutations})
	if err != nil {
		return fmt.Errorf("marshal cms mutation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("mutate"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build cms mutation: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mutate cms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("cms mutation responded with status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
}

// quoteParam JSON-encodes a GROQ parameter value.
func quoteParam(v string) string {
	encoded, _ := json.Marshal(v)
	return string(encoded)
}
