package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/rendis/conform/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Validations ---

func (s *LibSQLStore) RecordValidation(ctx context.Context, rec *ValidationRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO validations (id, payload_id, valid, violation_count, violations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, nullStr(rec.PayloadID), boolInt(rec.Valid), rec.ViolationCount,
		nullRaw(rec.Violations), rec.CreatedAt,
	)
	if err != nil {
		return storeErr("record validation", err)
	}
	return nil
}

func (s *LibSQLStore) ListValidations(ctx context.Context, limit int) ([]*ValidationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload_id, valid, violation_count, violations, created_at
		 FROM validations ORDER BY created_at DESC, id LIMIT ?`, limitOrDefault(limit))
	if err != nil {
		return nil, storeErr("list validations", err)
	}
	defer rows.Close()

	var out []*ValidationRecord
	for rows.Next() {
		rec := &ValidationRecord{}
		var payloadID, violations sql.NullString
		var valid int
		if err := rows.Scan(&rec.ID, &payloadID, &valid, &rec.ViolationCount, &violations, &rec.CreatedAt); err != nil {
			return nil, storeErr("scan validation", err)
		}
		rec.PayloadID = payloadID.String
		rec.Valid = valid != 0
		if violations.Valid {
			rec.Violations = json.RawMessage(violations.String)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --- Dispatches ---

func (s *LibSQLStore) RecordDispatch(ctx context.Context, rec *DispatchRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatches (id, operation, status, executor_ok, error, violations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Operation, rec.Status, boolInt(rec.ExecutorOK),
		nullStr(rec.Error), nullRaw(rec.Violations), rec.CreatedAt,
	)
	if err != nil {
		return storeErr("record dispatch", err)
	}
	return nil
}

func (s *LibSQLStore) ListDispatches(ctx context.Context, limit int) ([]*DispatchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, operation, status, executor_ok, error, violations, created_at
		 FROM dispatches ORDER BY created_at DESC, id LIMIT ?`, limitOrDefault(limit))
	if err != nil {
		return nil, storeErr("list dispatches", err)
	}
	defer rows.Close()

	var out []*DispatchRecord
	for rows.Next() {
		rec := &DispatchRecord{}
		var errMsg, violations sql.NullString
		var ok int
		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.Status, &ok, &errMsg, &violations, &rec.CreatedAt); err != nil {
			return nil, storeErr("scan dispatch", err)
		}
		rec.ExecutorOK = ok != 0
		rec.Error = errMsg.String
		if violations.Valid {
			rec.Violations = json.RawMessage(violations.String)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --- Documents ---

func (s *LibSQLStore) SaveDocument(ctx context.Context, doc *Document) error {
	body, err := json.Marshal(doc.Body)
	if err != nil {
		return storeErr("marshal document body", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, body, created_at) VALUES (?, ?, ?, ?)`,
		doc.ID, doc.Collection, string(body), doc.CreatedAt,
	)
	if err != nil {
		return storeErr("save document", err)
	}
	return nil
}

func (s *LibSQLStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, collection, body, created_at FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Collection, &body, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "document %q not found", id)
	}
	if err != nil {
		return nil, storeErr("get document", err)
	}
	if err := json.Unmarshal([]byte(body), &doc.Body); err != nil {
		return nil, storeErr("unmarshal document body", err)
	}
	return doc, nil
}

func (s *LibSQLStore) ListDocuments(ctx context.Context, collection string, limit int) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, collection, body, created_at FROM documents
		 WHERE collection = ? ORDER BY created_at DESC, id LIMIT ?`,
		collection, limitOrDefault(limit))
	if err != nil {
		return nil, storeErr("list documents", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		doc := &Document{}
		var body string
		if err := rows.Scan(&doc.ID, &doc.Collection, &body, &doc.CreatedAt); err != nil {
			return nil, storeErr("scan document", err)
		}
		if err := json.Unmarshal([]byte(body), &doc.Body); err != nil {
			return nil, storeErr("unmarshal document body", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// --- Flags ---

func (s *LibSQLStore) SaveFlag(ctx context.Context, flag *Flag) error {
	details, err := nullableJSON(flag.Details)
	if err != nil {
		return storeErr("marshal flag details", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO flags (id, reason, severity, details, created_at) VALUES (?, ?, ?, ?, ?)`,
		flag.ID, flag.Reason, flag.Severity, details, flag.CreatedAt,
	)
	if err != nil {
		return storeErr("save flag", err)
	}
	return nil
}

func (s *LibSQLStore) ListFlags(ctx context.Context, limit int) ([]*Flag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reason, severity, details, created_at FROM flags
		 ORDER BY created_at DESC, id LIMIT ?`, limitOrDefault(limit))
	if err != nil {
		return nil, storeErr("list flags", err)
	}
	defer rows.Close()

	var out []*Flag
	for rows.Next() {
		flag := &Flag{}
		var details sql.NullString
		if err := rows.Scan(&flag.ID, &flag.Reason, &flag.Severity, &details, &flag.CreatedAt); err != nil {
			return nil, storeErr("scan flag", err)
		}
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &flag.Details); err != nil {
				return nil, storeErr("unmarshal flag details", err)
			}
		}
		out = append(out, flag)
	}
	return out, rows.Err()
}

// --- helpers ---

func storeErr(op string, err error) error {
	return schema.NewErrorf(schema.ErrCodeStore, "%s: %s", op, err.Error()).WithCause(err)
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullRaw(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func nullableJSON(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
