package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/config"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
)

const (
	mongoAttempts = 5
	mongoAppName  = "cloudquiz-api"
)

var errNoMongoDatabase = errors.New("mongo: no database name configured")

// OpenMongo connects to cfg.URI, retrying with a doubling backoff while the
// server is not reachable yet, and returns the configured database. Close
// it with db.Client().Disconnect.
func OpenMongo(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Database, error) {
	if cfg.Database == "" {
		return nil, errNoMongoDatabase
	}
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= mongoAttempts; attempt++ {
		client, err := dialMongo(ctx, cfg)
		if err == nil {
			logger.Infof("connected to MongoDB database %s", cfg.Database)
			return client.Database(cfg.Database), nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, mongoAttempts, err)
		if attempt == mongoAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", mongoAttempts, lastErr)
}

func dialMongo(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(mongoAppName).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
