// Package database is an optional Postgres sink for request audit
// rows. The counter store stays the only cross-request coordination
// point; this is observability only and the gateway runs fine without
// it.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/llmfuse/hybrid-gateway/internal/shared/models"
)

type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(databaseURL string) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// LogRequest inserts one gateway request audit row.
func (db *DB) LogRequest(ctx context.Context, entry *models.RequestLog) error {
	query := `
		INSERT INTO gateway_logs (
			api_key_name, endpoint, provider, routing_reason,
			prompt_tokens, completion_tokens, total_tokens,
			latency_ms, fallback_used, status_code, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := db.conn.ExecContext(ctx,
		query,
		entry.APIKeyName,
		entry.Endpoint,
		entry.Provider,
		entry.RoutingReason,
		entry.PromptTokens,
		entry.CompletionTokens,
		entry.TotalTokens,
		entry.LatencyMs,
		entry.FallbackUsed,
		entry.StatusCode,
		entry.ErrorMessage,
	)

	return err
}
