package database

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/cache"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/config"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/storage"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
)

// Backends holds the connected document store, file store and optional
// Firebase app and Redis client.
type Backends struct {
	Store    docstore.Store
	Files    storage.FileStore
	Firebase *firebase.App
	Redis    *redis.Client
	Users    cache.Users

	closers []func(context.Context) error
}

// Open connects every backend cfg selects. Redis is optional: a failed ping
// only disables the features that use it.
func Open(ctx context.Context, cfg *config.Config) (*Backends, error) {
	b := &Backends{Users: cache.Nop{}}
	log := logger.With("database")

	if cfg.Store.Backend == "firestore" || cfg.Store.FileBackend == "gcs" || cfg.Auth.Firebase {
		app, err := NewFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
		b.Firebase = app
	}

	switch cfg.Store.Backend {
	case "firestore":
		client, err := b.Firebase.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		b.closers = append(b.closers, func(context.Context) error { return client.Close() })
		b.Store = docstore.NewInstrumented(docstore.NewFirestore(client), "firestore")
	case "mongo":
		db, err := OpenMongo(ctx, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Client().Disconnect)
		b.Store = docstore.NewInstrumented(docstore.NewMongo(db), "mongo")
	default:
		log.Warnf("using the in-memory document store; data is lost on exit")
		b.Store = docstore.NewInstrumented(docstore.NewMemory(), "memory")
	}

	switch cfg.Store.FileBackend {
	case "gcs":
		client, err := b.Firebase.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase storage client: %w", err)
		}
		bucket, err := client.Bucket(cfg.Firebase.StorageBucket)
		if err != nil {
			return nil, fmt.Errorf("firebase storage bucket: %w", err)
		}
		b.Files = storage.NewGCS(bucket, cfg.Firebase.StorageBucket)
	case "minio":
		files, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		b.Files = files
	default:
		b.Files = storage.NewMemory()
	}

	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = client.Close()
		} else {
			log.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			b.Redis = client
			b.Users = cache.NewRedisUsers(client, "", cfg.Redis.UserTTL)
			b.closers = append(b.closers, func(context.Context) error { return client.Close() })
		}
	}
	return b, nil
}

// Close releases every connection, returning the first error.
func (b *Backends) Close(ctx context.Context) error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
