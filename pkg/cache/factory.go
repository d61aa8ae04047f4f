package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/barekit/kbchat/pkg/cache/bolt"
	"github.com/barekit/kbchat/pkg/cache/file"
	gormcache "github.com/barekit/kbchat/pkg/cache/gorm"
	"github.com/barekit/kbchat/pkg/cache/inmemory"
	mongocache "github.com/barekit/kbchat/pkg/cache/mongo"
	"github.com/barekit/kbchat/pkg/cache/redis"
	"github.com/barekit/kbchat/pkg/consts"
	"github.com/barekit/kbchat/pkg/gormdb"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Type string

const (
	TypeFile     Type = "file"
	TypeBolt     Type = "bolt"
	TypeRedis    Type = "redis"
	TypeSQLite   Type = "sqlite"
	TypePostgres Type = "postgres"
	TypeMySQL    Type = "mysql"
	TypeMSSQL    Type = "mssql"
	TypeMongo    Type = "mongo"
	TypeInMemory Type = "inmemory"
	TypeNone     Type = "none"
)

// Config holds configuration for cache adapters.
type Config struct {
	Type             Type
	ConnectionString string
	DBName           string
	// TTL expires entries after the given age. Zero keeps them forever.
	// The file cache ignores it.
	TTL time.Duration
}

// NewFactory creates a cache adapter based on the configuration.
func NewFactory(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Type {
	case TypeFile, "":
		return file.New(cfg.ConnectionString), nil

	case TypeBolt:
		return bolt.New(cfg.ConnectionString, cfg.TTL)

	case TypeRedis:
		opts, err := goredis.ParseURL(cfg.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := goredis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return redis.New(client, cfg.TTL), nil

	case TypeSQLite, TypePostgres, TypeMySQL, TypeMSSQL:
		db, err := gormdb.Open(gormdb.Dialect(cfg.Type), cfg.ConnectionString)
		if err != nil {
			return nil, err
		}
		return gormcache.New(db, cfg.TTL)

	case TypeMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.ConnectionString))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			return nil, fmt.Errorf("failed to ping mongo: %w", err)
		}
		dbName := consts.DefaultDBName
		if cfg.DBName != "" {
			dbName = cfg.DBName
		}
		return mongocache.New(client, dbName, consts.TableNameResponses, cfg.TTL), nil

	case TypeInMemory:
		return inmemory.New(cfg.TTL), nil

	case TypeNone:
		return Nop{}, nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
