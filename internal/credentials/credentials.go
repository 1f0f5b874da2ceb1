// Package credentials loads the API access token and the client roster
// from the configuration bucket. Both are required for a run, so failures
// here are fatal rather than degraded.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/objectstore"
)

// Client is one roster entry from clients.json.
type Client struct {
	Slug                string `json:"slug"`
	BusinessID          string `json:"business_id"`
	ProjectID           string `json:"project_id"`
	GoogleAdsCustomerID string `json:"google_ads_customer_id,omitempty"`
}

// Config locates the secrets and roster blobs.
type Config struct {
	Bucket    string
	TokenKey  string
	RosterKey string
}

// DefaultConfig returns the conventional blob locations.
func DefaultConfig() Config {
	return Config{
		Bucket:    "clients-config",
		TokenKey:  "meta-access-token.json",
		RosterKey: "clients.json",
	}
}

// Loader reads credentials from object storage.
type Loader struct {
	cfg   Config
	blobs objectstore.ObjectStore
}

// NewLoader wires a credentials loader. Zero-value config fields fall back
// to the conventional locations.
func NewLoader(cfg Config, blobs objectstore.ObjectStore) *Loader {
	def := DefaultConfig()
	if cfg.Bucket == "" {
		cfg.Bucket = def.Bucket
	}
	if cfg.TokenKey == "" {
		cfg.TokenKey = def.TokenKey
	}
	if cfg.RosterKey == "" {
		cfg.RosterKey = def.RosterKey
	}
	return &Loader{cfg: cfg, blobs: blobs}
}

// AccessToken reads the token secret blob and extracts its ACCESS_TOKEN
// field.
func (l *Loader) AccessToken(ctx context.Context) (string, error) {
	data, err := l.blobs.GetObject(ctx, l.cfg.Bucket, l.cfg.TokenKey)
	if err != nil {
		return "", fmt.Errorf("load access token: %w", err)
	}

	var payload map[string]string
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parse access token blob: %w", err)
	}
	token := payload["ACCESS_TOKEN"]
	if token == "" {
		return "", fmt.Errorf("access token blob %s has no ACCESS_TOKEN field", l.cfg.TokenKey)
	}

	log.Info().Msg("access token loaded")
	return token, nil
}

// Clients reads the client roster.
func (l *Loader) Clients(ctx context.Context) ([]Client, error) {
	data, err := l.blobs.GetObject(ctx, l.cfg.Bucket, l.cfg.RosterKey)
	if err != nil {
		return nil, fmt.Errorf("load client roster: %w", err)
	}

	var clients []Client
	if err := json.Unmarshal(data, &clients); err != nil {
		return nil, fmt.Errorf("parse client roster: %w", err)
	}

	log.Info().Int("clients", len(clients)).Msg("client roster loaded")
	return clients, nil
}
