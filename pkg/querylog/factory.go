package querylog

import (
	"context"
	"fmt"

	"github.com/barekit/kbchat/pkg/consts"
	"github.com/barekit/kbchat/pkg/gormdb"
	"github.com/barekit/kbchat/pkg/querylog/file"
	gormlog "github.com/barekit/kbchat/pkg/querylog/gorm"
	"github.com/barekit/kbchat/pkg/querylog/inmemory"
	mongolog "github.com/barekit/kbchat/pkg/querylog/mongo"
	"github.com/barekit/kbchat/pkg/querylog/neo4j"
	"github.com/barekit/kbchat/pkg/querylog/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Type string

const (
	TypeFile     Type = "file"
	TypeRedis    Type = "redis"
	TypeSQLite   Type = "sqlite"
	TypePostgres Type = "postgres"
	TypeMySQL    Type = "mysql"
	TypeMSSQL    Type = "mssql"
	TypeMongo    Type = "mongo"
	TypeNeo4j    Type = "neo4j"
	TypeInMemory Type = "inmemory"
	TypeNone     Type = "none"
)

// Config holds configuration for query log adapters.
type Config struct {
	Type             Type
	ConnectionString string
	Username         string
	Password         string
	DBName           string
}

// NewFactory creates a query log adapter based on the configuration.
func NewFactory(ctx context.Context, cfg Config) (Logger, error) {
	switch cfg.Type {
	case TypeFile, "":
		return file.New(cfg.ConnectionString), nil

	case TypeRedis:
		opts, err := goredis.ParseURL(cfg.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := goredis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return redis.New(client, consts.KeyQueryLog), nil

	case TypeSQLite, TypePostgres, TypeMySQL, TypeMSSQL:
		db, err := gormdb.Open(gormdb.Dialect(cfg.Type), cfg.ConnectionString)
		if err != nil {
			return nil, err
		}
		return gormlog.New(db)

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
		return mongolog.New(client, dbName, consts.TableNameQueries), nil

	case TypeNeo4j:
		dbName := "neo4j"
		if cfg.DBName != "" {
			dbName = cfg.DBName
		}
		return neo4j.New(ctx, cfg.ConnectionString, cfg.Username, cfg.Password, dbName)

	case TypeInMemory:
		return inmemory.New(), nil

	case TypeNone:
		return Nop{}, nil

	default:
		return nil, fmt.Errorf("unsupported query log type: %s", cfg.Type)
	}
}
