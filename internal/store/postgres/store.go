package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/cassidycr/accildatabase/internal/models"
	"github.com/cassidycr/accildatabase/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		},
	}}, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

// CreateSession inserts the session row plus its initial tag set in one
// transaction and returns the assigned id.
func (s *PostgresStore) CreateSession(session *models.Session) (int64, error) {
	tx, err := s.DB.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowx(`
		INSERT INTO sessions (
			first, last, email, date_1, date_2, session_type, campus, librarian,
			course_code, course_number, date_confirmed, campus_room,
			num_students, assessment, canceled, canceled_reason
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
		RETURNING id
	`,
		session.First,
		session.Last,
		session.Email,
		session.Date1,
		session.Date2,
		session.Type,
		session.Campus,
		session.Librarian,
		session.CourseCode,
		session.CourseNumber,
		session.DateConfirmed,
		session.CampusRoom,
		session.NumStudents,
		session.Assessment,
		session.Canceled,
		session.CanceledReason,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
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
