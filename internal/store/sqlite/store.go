// internal/store/sqlite/store.go
package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cassidycr/accildatabase/internal/models"
	"github.com/cassidycr/accildatabase/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// translateToSQLite converts Postgres SQL to SQLite dialect. Replacements
// are ordered: BIGSERIAL must go before SERIAL and BIGINT.
func translateToSQLite(sql string) string {
	replacements := []struct{ from, to string }{
		{"BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{"SERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{"BIGINT", "INTEGER"},
		{"BOOLEAN", "INTEGER"},
		{"TRUE", "1"},
		{"FALSE", "0"},
		{"VARCHAR(4)", "TEXT"},
		{"now()", "CURRENT_TIMESTAMP"},
	}
	result := sql
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.from, r.to)
	}
	return result
}

// CreateSession inserts the session row plus its initial tag set in one
// transaction and returns the assigned id.
func (s *SQLiteStore) CreateSession(session *models.Session) (int64, error) {
	tx, err := s.DB.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.NamedExec(`
		INSERT INTO sessions (
			first, last, email, date_1, date_2, session_type, campus, librarian,
			course_code, course_number, date_confirmed, campus_room,
			num_students, assessment, canceled, canceled_reason
		) VALUES (
			:first, :last, :email, :date_1, :date_2, :session_type, :campus, :librarian,
			:course_code, :course_number, :date_confirmed, :campus_room,
			:num_students, :assessment, :canceled, :canceled_reason
		)
	`, session)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new session id: %w", err)
	}

	if err := s.InsertSLOsTx(tx, id, session.SLOs); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit session creation: %w", err)
	}

	session.ID = id
	return id, nil
}
