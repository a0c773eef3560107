package database

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/config"
)

// NewFirebaseApp initializes the Firebase app for the configured project.
// Inline JSON credentials win over a credentials file; with neither the
// application default credentials are used.
func NewFirebaseApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	return app, nil
}
