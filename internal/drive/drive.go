// Package drive reads and removes backup archives kept in Google Drive.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
)

// Files is the part of Drive the maintenance jobs use.
type Files interface {
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
	Delete(ctx context.Context, fileID string) error
}

// Client wraps a Drive service.
type Client struct {
	srv *gdrive.Service
	log *logger.Logger
}

// New builds a client from service account JSON. Escaped newlines in the
// private key are restored first so the JSON can come from an env var.
func New(ctx context.Context, credentialsJSON string) (*Client, error) {
	if credentialsJSON == "" {
		return nil, fmt.Errorf("drive credentials not set")
	}
	var creds map[string]any
	if err := json.Unmarshal([]byte(credentialsJSON), &creds); err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	if key, ok := creds["private_key"].(string); ok {
		creds["private_key"] = strings.ReplaceAll(key, `\n`, "\n")
	}
	raw, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("encode drive credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(raw, gdrive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("drive credentials: %w", err)
	}
	return NewWithOptions(ctx, option.WithHTTPClient(cfg.Client(ctx)))
}

// NewWithOptions builds a client with explicit API options, e.g. a test
// endpoint.
func NewWithOptions(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	srv, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Client{srv: srv, log: logger.With("drive")}, nil
}

// Download streams the content of a file. The caller closes the body.
func (c *Client) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := c.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	return resp.Body, nil
}

func (c *Client) Delete(ctx context.Context, fileID string) error {
	if err := c.srv.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete %s: %w", fileID, err)
	}
	c.log.Infof("deleted file %s", fileID)
	return nil
}
