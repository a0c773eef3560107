package database

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/cache"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/config"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/storage"
)

func memoryConfig() *config.Config {
	return &config.Config{Store: config.StoreConfig{Backend: "memory", FileBackend: "memory"}}
}

func TestOpen_MemoryBackends(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, memoryConfig())
	require.NoError(t, err)
	defer b.Close(ctx)

	assert.IsType(t, &docstore.Instrumented{}, b.Store)
	assert.IsType(t, &storage.Memory{}, b.Files)
	assert.IsType(t, cache.Nop{}, b.Users)
	assert.Nil(t, b.Firebase)
	assert.Nil(t, b.Redis)
}

func TestOpen_RedisEnablesUserCache(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	cfg := memoryConfig()
	cfg.Redis = config.RedisConfig{Host: m.Host(), Port: m.Port()}
	ctx := context.Background()
	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer b.Close(ctx)

	require.NotNil(t, b.Redis)
	assert.IsType(t, &cache.RedisUsers{}, b.Users)
}

func TestOpen_UnreachableRedisIsOptional(t *testing.T) {
	cfg := memoryConfig()
	cfg.Redis = config.RedisConfig{Host: "127.0.0.1", Port: "1"}
	ctx := context.Background()
	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, b.Redis)
	assert.NoError(t, b.Close(ctx))
}

func TestOpenMongo_RequiresDatabase(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Backend = "mongo"
	cfg.MongoDB = config.MongoDBConfig{URI: "mongodb://127.0.0.1:1"}
	_, err := Open(context.Background(), cfg)
	assert.ErrorIs(t, err, errNoMongoDatabase)
}

func TestOpenMongo_StopsRetryingWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := OpenMongo(ctx, config.MongoDBConfig{URI: "mongodb://127.0.0.1:1", Database: "cloudquiz", Timeout: 100 * time.Millisecond})
	assert.ErrorIs(t, err, context.Canceled)
}
