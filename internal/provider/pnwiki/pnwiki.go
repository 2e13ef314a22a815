// Package pnwiki provides the PsychonautWiki API client used to build
// the reveal game's substance pool and decorate end-of-round messages.
package pnwiki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Defaults for the public wiki endpoints.
const (
	DefaultEndpoint      = "https://api.psychonautwiki.org/"
	DefaultImageEndpoint = "https://psychonautwiki.org/w/thumb.php"
	DefaultTimeout       = 15 * time.Second
)

// ErrNotFound is returned when the wiki has no entry for a substance.
var ErrNotFound = errors.New("substance not found")

// Substance is a wiki page reference.
type Substance struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Config holds wiki client settings.
type Config struct {
	Endpoint      string
	ImageEndpoint string
	Timeout       time.Duration
}

// Client queries the wiki's GraphQL API and thumbnail service.
type Client struct {
	endpoint string
	imageURL string
	http     *http.Client
}

// New creates a wiki client, applying defaults for unset fields.
func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.ImageEndpoint == "" {
		cfg.ImageEndpoint = DefaultImageEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		endpoint: cfg.Endpoint,
		imageURL: cfg.ImageEndpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type gqlRequest struct {
	Query string `json:"query"`
}

func (c *Client) query(ctx context.Context, query string, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query})
	if err != nil {
		return fmt.Errorf("encoding wiki query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building wiki request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("querying wiki: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("querying wiki: unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding wiki response: %w", err)
	}
	return nil
}

// ListSubstances returns the names of every substance the wiki knows.
func (c *Client) ListSubstances(ctx context.Context) ([]string, error) {
	var out struct {
		Data struct {
			Substances []struct {
				Name string `json:"name"`
			} `json:"substances"`
		} `json:"data"`
	}
	if err := c.query(ctx, `{ substances(limit: 1000) { name } }`, &out); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(out.Data.Substances))
	for _, s := range out.Data.Substances {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

// SubstancePage returns the wiki page reference for a substance, used
// for "learn more" links. Unknown substances return ErrNotFound.
func (c *Client) SubstancePage(ctx context.Context, name string) (Substance, error) {
	var out struct {
		Data struct {
			Substances []Substance `json:"substances"`
		} `json:"data"`
	}
	query := fmt.Sprintf(`{ substances(query: %q) { name url } }`, name)
	if err := c.query(ctx, query, &out); err != nil {
		return Substance{}, err
	}

	for _, s := range out.Data.Substances {
		if s.URL != "" {
			return s, nil
		}
	}
	return Substance{}, ErrNotFound
}

// SchematicImage downloads the substance's structure drawing as
// rendered by the wiki's thumbnail service.
func (c *Client) SchematicImage(ctx context.Context, name string) ([]byte, error) {
	params := url.Values{}
	params.Set("f", name+".svg")
	params.Set("width", "500")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.imageURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building schematic request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching schematic for %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fetching schematic for %s: %w", name, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetching schematic for %s: unexpected status %s", name, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading schematic for %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("fetching schematic for %s: %w", name, ErrNotFound)
	}
	return data, nil
}
