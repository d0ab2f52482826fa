package store

import (
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/cassidycr/accildatabase/internal/models"
)

// SessionStore is the persistence boundary for instruction sessions and
// their owned SLO tags. Update and cancel against an unknown id are silent
// no-ops; callers that need strict existence checks query first.
type SessionStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateSession(s *models.Session) (int64, error)
	GetSession(id int64) (*models.Session, error)
	ListSessions() ([]models.Session, error)
	UpdateSessionFields(id int64, fields map[string]any) error
	ReplaceSLOs(id int64, slos []string) error
	CancelSession(id int64, reason string) error
}

// Columns UpdateSessionFields will touch. Requested-state identity fields
// (names, email, course code/number, candidate dates) are immutable here.
var updatableColumns = map[string]bool{
	"campus":         true,
	"librarian":      true,
	"date_confirmed": true,
	"campus_room":    true,
	"num_students":   true,
	"assessment":     true,
}

const sessionColumns = `
	id, first, last, email, date_1, date_2, session_type, campus, librarian,
	course_code, course_number, date_confirmed, campus_room, num_students,
	assessment, canceled, canceled_reason
`

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) GetSession(id int64) (*models.Session, error) {
	var session models.Session
	query := s.Converter(`
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = ?
	`)

	err := s.DB.Get(&session, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := s.attachSLOs(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns every session with its SLO tags eagerly attached.
func (s *BaseStore) ListSessions() ([]models.Session, error) {
	var sessions []models.Session
	err := s.DB.Select(&sessions, `
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var tags []models.SessionSLO
	err = s.DB.Select(&tags, `
		SELECT id, session_id, slo
		FROM session_slos
		ORDER BY session_id, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list session SLOs: %w", err)
	}

	bySession := make(map[int64][]string)
	for _, tag := range tags {
		bySession[tag.SessionID] = append(bySession[tag.SessionID], tag.SLO)
	}
	for i := range sessions {
		sessions[i].SLOs = bySession[sessions[i].ID]
	}

	return sessions, nil
}

// UpdateSessionFields applies a partial update over the updatable column
// whitelist. Unknown columns are an error; an unknown id is not.
func (s *BaseStore) UpdateSessionFields(id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableColumns[col] {
			return fmt.Errorf("column not updatable: %s", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	for _, col := range columns {
		sets = append(sets, fmt.Sprintf("%s = ?", col))
		args = append(args, fields[col])
	}
	args = append(args, id)

	query := s.Converter(fmt.Sprintf(
		"UPDATE sessions SET %s WHERE id = ?",
		strings.Join(sets, ", "),
	))
	if _, err := s.DB.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// ReplaceSLOs swaps a session's whole tag set in one transaction so reads
// never observe a mixed old/new set.
func (s *BaseStore) ReplaceSLOs(id int64, slos []string) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.Converter("DELETE FROM session_slos WHERE session_id = ?"), id); err != nil {
		return fmt.Errorf("failed to clear session SLOs: %w", err)
	}
	if err := s.InsertSLOsTx(tx, id, slos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit SLO replacement: %w", err)
	}
	return nil
}

func (s *BaseStore) CancelSession(id int64, reason string) error {
	query := s.Converter(`
		UPDATE sessions
		SET canceled = ?, canceled_reason = ?
		WHERE id = ?
	`)
	if _, err := s.DB.Exec(query, true, reason, id); err != nil {
		return fmt.Errorf("failed to cancel session: %w", err)
	}
	return nil
}

// InsertSLOsTx inserts tag rows inside an open transaction. Used by the
// dialect stores during session creation and by ReplaceSLOs.
func (s *BaseStore) InsertSLOsTx(tx *sqlx.Tx, id int64, slos []string) error {
	query := s.Converter("INSERT INTO session_slos (session_id, slo) VALUES (?, ?)")
	for _, slo := range slos {
		if _, err := tx.Exec(query, id, slo); err != nil {
			return fmt.Errorf("failed to insert session SLO: %w", err)
		}
	}
	return nil
}

func (s *BaseStore) attachSLOs(session *models.Session) error {
	var tags []models.SessionSLO
	query := s.Converter(`
		SELECT id, session_id, slo
		FROM session_slos
		WHERE session_id = ?
		ORDER BY id ASC
	`)
	if err := s.DB.Select(&tags, query, session.ID); err != nil {
		return fmt.Errorf("failed to fetch session SLOs: %w", err)
	}

	session.SLOs = nil
	for _, tag := range tags {
		session.SLOs = append(session.SLOs, tag.SLO)
	}
	return nil
}
