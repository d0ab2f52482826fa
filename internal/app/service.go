package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/cassidycr/accildatabase/internal/dates"
	"github.com/cassidycr/accildatabase/internal/lifecycle"
	"github.com/cassidycr/accildatabase/internal/models"
	"github.com/cassidycr/accildatabase/internal/notify"
	"github.com/cassidycr/accildatabase/internal/reports"
	"github.com/cassidycr/accildatabase/internal/store"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("session not found")
	ErrSessionCanceled = errors.New("session is canceled")
)

// DefaultCancelReason is recorded when a cancellation carries no reason.
const DefaultCancelReason = "Canceled via interface"

type Service struct {
	Config   *Config
	Store    store.SessionStore
	Notifier notify.Notifier
	Cache    *ReportCache
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	cache, err := NewReportCache(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init report cache: %w", err)
	}

	var notifier notify.Notifier
	if config.Notify.Enabled {
		notifier = notify.NewMailer(config.Notify.SMTP)
	}

	return &Service{
		Config:   config,
		Store:    store,
		Notifier: notifier,
		Cache:    cache,
	}, nil
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

// CreateSession validates a submission, persists it as an open request, and
// emits the notification record. Notification failure is logged, never
// propagated: the creation is already committed.
func (s *Service) CreateSession(ctx context.Context, in *models.CreateSessionInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	date1, ok := dates.NormalizeString(in.Date1)
	if !ok {
		return 0, fmt.Errorf("%w: first candidate date is not a valid date: %q", ErrValidation, in.Date1)
	}
	date2, ok := dates.NormalizeString(in.Date2)
	if !ok {
		return 0, fmt.Errorf("%w: second candidate date is not a valid date: %q", ErrValidation, in.Date2)
	}

	session := &models.Session{
		First:        in.First,
		Last:         in.Last,
		Email:        in.Email,
		Date1:        date1.Format(dates.Canonical),
		Date2:        date2.Format(dates.Canonical),
		Type:         in.Type,
		Campus:       in.Campus,
		Librarian:    in.Librarian,
		CourseCode:   in.CourseCode,
		CourseNumber: in.CourseNumber,
		SLOs:         in.SLOs,
	}

	id, err := s.Store.CreateSession(session)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	s.Cache.Invalidate(ctx)

	if s.Notifier != nil {
		if err := s.Notifier.SessionRequested(session); err != nil {
			logger.Error.Printf("Notification for session %d failed: %v", id, err)
		}
	}

	return id, nil
}

// ConfirmSessionInput carries the operator's confirmation. The confirmed
// date may arrive as a string in any accepted format or as a unix
// timestamp; optional fields are pointers, nil means leave the stored value
// alone.
type ConfirmSessionInput struct {
	DateConfirmed any       `json:"date_confirmed"`
	CampusRoom    *string   `json:"campus_room"`
	NumStudents   *int      `json:"num_students"`
	Assessment    *string   `json:"assessment"`
	SLOs          *[]string `json:"slos"`
}

// ConfirmSession moves a request into the confirmed class. The confirmed
// date must normalize to a real calendar date; it is stored canonically.
func (s *Service) ConfirmSession(ctx context.Context, id int64, in *ConfirmSessionInput) error {
	session, err := s.Store.GetSession(id)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotFound
	}
	if !lifecycle.Editable(session) {
		return ErrSessionCanceled
	}

	confirmed, ok := dates.Normalize(in.DateConfirmed)
	if !ok {
		return fmt.Errorf("%w: confirmed date is not a valid date: %v", ErrValidation, in.DateConfirmed)
	}

	fields := map[string]any{
		"date_confirmed": confirmed.Format(dates.Canonical),
	}
	if in.CampusRoom != nil {
		fields["campus_room"] = *in.CampusRoom
	}
	if in.NumStudents != nil {
		fields["num_students"] = *in.NumStudents
	}
	if in.Assessment != nil {
		fields["assessment"] = *in.Assessment
	}

	if err := s.Store.UpdateSessionFields(id, fields); err != nil {
		return err
	}
	if in.SLOs != nil {
		if err := s.replaceTagSet(id, *in.SLOs); err != nil {
			return err
		}
	}

	s.Cache.Invalidate(ctx)
	return nil
}

// EditSessionInput is a partial in-place edit. Every field is independent;
// setting one does not revalidate the others.
type EditSessionInput struct {
	Campus        *string   `json:"campus"`
	Librarian     *string   `json:"librarian"`
	DateConfirmed *string   `json:"date_confirmed"`
	CampusRoom    *string   `json:"campus_room"`
	NumStudents   *int      `json:"num_students"`
	Assessment    *string   `json:"assessment"`
	SLOs          *[]string `json:"slos"`
}

func (s *Service) EditSession(ctx context.Context, id int64, in *EditSessionInput) error {
	session, err := s.Store.GetSession(id)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotFound
	}
	if !lifecycle.Editable(session) {
		return ErrSessionCanceled
	}

	fields := map[string]any{}
	if in.Campus != nil {
		fields["campus"] = *in.Campus
	}
	if in.Librarian != nil {
		fields["librarian"] = *in.Librarian
	}
	if in.DateConfirmed != nil {
		confirmed, ok := dates.NormalizeString(*in.DateConfirmed)
		if !ok {
			return fmt.Errorf("%w: confirmed date is not a valid date: %q", ErrValidation, *in.DateConfirmed)
		}
		fields["date_confirmed"] = confirmed.Format(dates.Canonical)
	}
	if in.CampusRoom != nil {
		fields["campus_room"] = *in.CampusRoom
	}
	if in.NumStudents != nil {
		fields["num_students"] = *in.NumStudents
	}
	if in.Assessment != nil {
		fields["assessment"] = *in.Assessment
	}

	if err := s.Store.UpdateSessionFields(id, fields); err != nil {
		return err
	}
	if in.SLOs != nil {
		if err := s.replaceTagSet(id, *in.SLOs); err != nil {
			return err
		}
	}

	s.Cache.Invalidate(ctx)
	return nil
}

// CancelSession marks a session canceled. Idempotent; a missing id is a
// silent no-op, a repeat cancel overwrites the reason.
func (s *Service) CancelSession(ctx context.Context, id int64, reason string) error {
	if reason == "" {
		reason = DefaultCancelReason
	}
	if err := s.Store.CancelSession(id, reason); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx)
	return nil
}

func (s *Service) replaceTagSet(id int64, slos []string) error {
	if len(slos) > models.MaxSLOsPerSession {
		return fmt.Errorf("%w: at most %d SLOs per session", ErrValidation, models.MaxSLOsPerSession)
	}
	for _, slo := range slos {
		if !models.ValidSLO(slo) {
			return fmt.Errorf("%w: unknown SLO: %q", ErrValidation, slo)
		}
	}
	return s.Store.ReplaceSLOs(id, slos)
}

// SessionRow is a session annotated with its lifecycle class and, when
// confirmed, the weekday of the confirmed date.
type SessionRow struct {
	models.Session
	Class     lifecycle.Class `json:"class"`
	DayOfWeek string          `json:"day_of_week,omitempty"`
}

// ListFilter narrows ListSessions output. Zero values select everything.
type ListFilter struct {
	Class     lifecycle.Class
	Campus    string
	Librarian string
}

func (s *Service) ListSessions(filter ListFilter) ([]SessionRow, error) {
	sessions, err := s.Store.ListSessions()
	if err != nil {
		return nil, err
	}

	rows := make([]SessionRow, 0, len(sessions))
	for i := range sessions {
		session := sessions[i]
		class := lifecycle.Classify(&session)
		if filter.Class != "" && class != filter.Class {
			continue
		}
		if filter.Campus != "" && session.Campus != filter.Campus {
			continue
		}
		if filter.Librarian != "" && session.Librarian != filter.Librarian {
			continue
		}

		row := SessionRow{Session: session, Class: class}
		if d, ok := dates.NormalizeString(session.DateConfirmed); ok {
			row.DayOfWeek = d.Format("Monday")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Dashboard builds the five report artifacts over the class-filtered set,
// consulting the report cache first. An empty class list means everything.
func (s *Service) Dashboard(ctx context.Context, classes ...lifecycle.Class) (reports.Dashboard, error) {
	key := cacheKey(classes)
	if dash, ok := s.Cache.Get(ctx, key); ok {
		return *dash, nil
	}

	sessions, err := s.Store.ListSessions()
	if err != nil {
		return reports.Dashboard{}, fmt.Errorf("failed to load sessions for reporting: %w", err)
	}

	dash := reports.Build(sessions, classes...)
	s.Cache.Set(ctx, key, dash)
	return dash, nil
}

func cacheKey(classes []lifecycle.Class) string {
	if len(classes) == 0 {
		return "all"
	}
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
