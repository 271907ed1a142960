package annotations

import (
	"context"
	"fmt"

	"trendgraph/internal/config"
	"trendgraph/internal/fetchers"
)

// BackendKind names an annotation backend
type BackendKind string

const (
	BackendMemory   BackendKind = "memory"
	BackendSQLite   BackendKind = "sqlite"
	BackendMySQL    BackendKind = "mysql"
	BackendPostgres BackendKind = "postgres"
	BackendDynamoDB BackendKind = "dynamodb"
	BackendRemote   BackendKind = "remote"
)

// DefaultSQLiteDSN is the database file used when the sqlite backend has no DSN
const DefaultSQLiteDSN = "trendgraph.db"

// DriverFor maps a SQL backend kind to its database/sql driver name
func DriverFor(kind BackendKind) (string, error) {
	switch kind {
	case BackendSQLite:
		return DriverSQLite, nil
	case BackendMySQL:
		return DriverMySQL, nil
	case BackendPostgres:
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("backend %s is not SQL", kind)
	}
}

// NewBackend creates the backend selected by the configuration
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	kind := BackendKind(cfg.AnnotationBackend)
	switch kind {
	case BackendMemory, "":
		return NewMemoryBackend(), nil

	case BackendSQLite, BackendMySQL, BackendPostgres:
		driver, _ := DriverFor(kind)
		dsn := cfg.AnnotationDBDSN
		if kind == BackendSQLite && dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		b, err := NewSQLBackend(ctx, driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s annotation backend: %w", kind, err)
		}
		return b, nil

	case BackendDynamoDB:
		b, err := NewDynamoBackend(ctx, cfg.AnnotationTable)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize DynamoDB annotation backend: %w", err)
		}
		return b, nil

	case BackendRemote:
		if cfg.AnnotationAPIURL == "" {
			return nil, fmt.Errorf("remote annotation backend needs ANNOTATION_API_URL")
		}
		client := fetchers.NewAnnotationClient(fetchers.NewDataFetcher().Client(), cfg.AnnotationAPIURL, cfg.AnnotationAPIToken)
		return NewRemoteBackend(client), nil

	default:
		return nil, fmt.Errorf("unsupported annotation backend: %s", kind)
	}
}
