package annotations

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"trendgraph/internal/models"
)

// database/sql driver names
const (
	DriverSQLite   = "sqlite3"
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
)

const annotationsTable = "trendgraph_annotations"

// SQLBackend stores annotations in SQLite, MySQL or PostgreSQL
type SQLBackend struct {
	db         *sql.DB
	driverName string
}

// OpenSQL opens a database connection for driverName and verifies it
func OpenSQL(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	switch driverName {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported SQL driver: %s", driverName)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}
	if driverName == DriverSQLite {
		// one connection so an in-memory database is shared and writes never hit "database is locked"
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	return db, nil
}

// NewSQLBackend opens dsn and migrates the schema to the latest version
func NewSQLBackend(ctx context.Context, driverName, dsn string) (*SQLBackend, error) {
	db, err := OpenSQL(ctx, driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, driverName, -1); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLBackend{db: db, driverName: driverName}, nil
}

// rebind rewrites ? placeholders for drivers that number them
func (b *SQLBackend) rebind(query string) string {
	if b.driverName != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// List returns the scope's annotations ordered by creation time
func (b *SQLBackend) List(ctx context.Context, scope Scope) ([]models.Annotation, error) {
	query := b.rebind(fmt.Sprintf(`SELECT id, content, date_marker, created_at, creator_first_name, creator_email
		FROM %s WHERE scope = ? ORDER BY created_at, id`, annotationsTable))
	rows, err := b.db.QueryContext(ctx, query, scope.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var list []models.Annotation
	for rows.Next() {
		var (
			a                  models.Annotation
			dateMarker, create int64
			firstName, email   string
		)
		if err := rows.Scan(&a.ID, &a.Content, &dateMarker, &create, &firstName, &email); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		a.DateMarker = time.UnixMicro(dateMarker).UTC()
		a.CreatedAt = time.UnixMicro(create).UTC()
		if firstName != "" || email != "" {
			a.CreatedBy = &models.Creator{FirstName: firstName, Email: email}
		}
		a.DashboardItem = scope.DashboardItem
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}
	return list, nil
}

// Create inserts a with a fresh id
func (b *SQLBackend) Create(ctx context.Context, a models.Annotation) (models.Annotation, error) {
	a.ID = uuid.NewString()
	var firstName, email string
	if a.CreatedBy != nil {
		firstName, email = a.CreatedBy.FirstName, a.CreatedBy.Email
	}
	query := b.rebind(fmt.Sprintf(`INSERT INTO %s
		(scope, id, content, date_marker, created_at, creator_first_name, creator_email)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, annotationsTable))
	_, err := b.db.ExecContext(ctx, query,
		Scope{DashboardItem: a.DashboardItem}.Key(), a.ID, a.Content,
		a.DateMarker.UnixMicro(), a.CreatedAt.UnixMicro(), firstName, email)
	if err != nil {
		return models.Annotation{}, fmt.Errorf("failed to insert annotation: %w", err)
	}
	return a, nil
}

// Close closes the database
func (b *SQLBackend) Close() error {
	return b.db.Close()
}
