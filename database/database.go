package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"opsecho/models"
	"opsecho/views"
)

// Collection tables; every row holds one JSONB document
const (
	TableIncidents    = "incidents"
	TableHumans       = "humans"
	TableMachines     = "machines"
	TableTelemetry    = "telemetry_channels"
	TableChatThreads  = "chat_threads"
	TableChatMessages = "chat_messages"
	TableInteractions = "hmi_interactions"
)

// Tables lists the collections in load order
var Tables = []string{
	TableHumans, TableMachines, TableIncidents, TableTelemetry,
	TableChatThreads, TableChatMessages, TableInteractions,
}

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DB{db}, nil
}

// Migrate creates the collection tables when missing
func (db *DB) Migrate(ctx context.Context) error {
	for _, table := range Tables {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         TEXT PRIMARY KEY,
				position   INTEGER NOT NULL,
				doc        JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, table)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// Source serves snapshots stored in Postgres
type Source struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewSource reads collections from db
func NewSource(db *sql.DB, now func() time.Time, logger *zap.Logger) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{db: db, now: now, logger: logger}
}

// Name identifies the source in logs
func (s *Source) Name() string {
	return "postgres"
}

// Load reads every collection and computes the panel statistics
func (s *Source) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	targets := map[string]interface{}{
		TableHumans:       &snap.Humans,
		TableMachines:     &snap.Machines,
		TableIncidents:    &snap.Incidents,
		TableTelemetry:    &snap.TelemetryChannels,
		TableChatThreads:  &snap.ChatThreads,
		TableChatMessages: &snap.ChatMessages,
		TableInteractions: &snap.HumanMachineInteractions,
	}

	for _, table := range Tables {
		docs, err := s.readDocuments(ctx, table)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(docs, targets[table]); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", table, err)
		}
	}

	at := s.now()
	snap.Incidents = models.RefreshIncidents(snap.Incidents, at)
	snap.Statistics = views.ComputeStatistics(*snap, at)
	s.logger.Debug("snapshot loaded from postgres",
		zap.Int("incidents", len(snap.Incidents)),
		zap.Int("machines", len(snap.Machines)),
		zap.Int("humans", len(snap.Humans)))
	return snap, nil
}

// readDocuments returns the documents of table as one JSON array
func (s *Source) readDocuments(ctx context.Context, table string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s ORDER BY position`, table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		docs = append(docs, json.RawMessage(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	return json.Marshal(docs)
}

// Save replaces every collection with the contents of snap in one transaction
func (s *Source) Save(ctx context.Context, snap *models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	collections := map[string][]document{
		TableHumans:       documents(snap.Humans, func(h models.Human) string { return h.ID }),
		TableMachines:     documents(snap.Machines, func(m models.Machine) string { return m.ID }),
		TableIncidents:    documents(snap.Incidents, func(i models.Incident) string { return i.ID }),
		TableTelemetry:    documents(snap.TelemetryChannels, func(c models.TelemetryChannel) string { return c.ID }),
		TableChatThreads:  documents(snap.ChatThreads, func(t models.ChatThread) string { return t.ID }),
		TableChatMessages: documents(snap.ChatMessages, func(m models.ChatMessage) string { return m.ID }),
		TableInteractions: documents(snap.HumanMachineInteractions, func(i models.HumanMachineInteraction) string { return i.ID }),
	}

	for _, table := range Tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		query := fmt.Sprintf(`INSERT INTO %s (id, position, doc) VALUES ($1, $2, $3)`, table)
		for pos, doc := range collections[table] {
			if doc.err != nil {
				return fmt.Errorf("failed to encode %s %s: %w", table, doc.id, doc.err)
			}
			if _, err := tx.ExecContext(ctx, query, doc.id, pos, doc.body); err != nil {
				return fmt.Errorf("failed to insert %s %s: %w", table, doc.id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	s.logger.Info("snapshot saved to postgres", zap.Int("incidents", len(snap.Incidents)))
	return nil
}

type document struct {
	id   string
	body []byte
	err  error
}

func documents[T any](items []T, id func(T) string) []document {
	out := make([]document, len(items))
	for i, item := range items {
		body, err := json.Marshal(item)
		out[i] = document{id: id(item), body: body, err: err}
	}
	return out
}
