package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cassidycr/accildatabase/internal/lifecycle"
	"github.com/cassidycr/accildatabase/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) ApplyMigrations(dir string) error {
	return nil
}

func (m *MockStore) CreateSession(s *models.Session) (int64, error) {
	args := m.Called(s)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) GetSession(id int64) (*models.Session, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockStore) ListSessions() ([]models.Session, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *MockStore) UpdateSessionFields(id int64, fields map[string]any) error {
	args := m.Called(id, fields)
	return args.Error(0)
}

func (m *MockStore) ReplaceSLOs(id int64, slos []string) error {
	args := m.Called(id, slos)
	return args.Error(0)
}

func (m *MockStore) CancelSession(id int64, reason string) error {
	args := m.Called(id, reason)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SessionRequested(s *models.Session) error {
	args := m.Called(s)
	return args.Error(0)
}

func newTestService(st *MockStore) *Service {
	return &Service{
		Config: &Config{},
		Store:  st,
		Cache:  &ReportCache{},
	}
}

func validInput() *models.CreateSessionInput {
	return &models.CreateSessionInput{
		First:        "Dana",
		Last:         "Reid",
		Email:        "dana.reid@example.edu",
		Date1:        "2024-03-10",
		Date2:        "03/12/2024",
		Type:         models.TypeInPerson,
		Campus:       "Highland",
		Librarian:    "Reid",
		CourseCode:   "ENGL",
		CourseNumber: "1301",
		SLOs:         []string{models.SLOEvaluateInfo},
	}
}

func TestCreateSessionValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*models.CreateSessionInput)
	}{
		{
			name:   "missing first name",
			mutate: func(in *models.CreateSessionInput) { in.First = "" },
		},
		{
			name:   "missing email",
			mutate: func(in *models.CreateSessionInput) { in.Email = "" },
		},
		{
			name:   "malformed email",
			mutate: func(in *models.CreateSessionInput) { in.Email = "not-an-email" },
		},
		{
			name:   "in-person without campus",
			mutate: func(in *models.CreateSessionInput) { in.Campus = "" },
		},
		{
			name: "campus on a synchronous session",
			mutate: func(in *models.CreateSessionInput) {
				in.Type = models.TypeSynchronous
			},
		},
		{
			name:   "course code too short",
			mutate: func(in *models.CreateSessionInput) { in.CourseCode = "ENG" },
		},
		{
			name:   "course number too long",
			mutate: func(in *models.CreateSessionInput) { in.CourseNumber = "13011" },
		},
		{
			name:   "unknown delivery type",
			mutate: func(in *models.CreateSessionInput) { in.Type = "Holographic" },
		},
		{
			name: "four SLOs",
			mutate: func(in *models.CreateSessionInput) {
				in.SLOs = models.AllSLOs[:4]
			},
		},
		{
			name: "unknown SLO",
			mutate: func(in *models.CreateSessionInput) {
				in.SLOs = []string{"Learn to juggle"}
			},
		},
		{
			name:   "unparseable candidate date",
			mutate: func(in *models.CreateSessionInput) { in.Date1 = "sometime soon" },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st := new(MockStore)
			service := newTestService(st)

			in := validInput()
			tc.mutate(in)

			_, err := service.CreateSession(context.Background(), in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			st.AssertNotCalled(t, "CreateSession", mock.Anything)
		})
	}
}

func TestCreateSession(t *testing.T) {
	t.Run("persists and notifies", func(t *testing.T) {
		st := new(MockStore)
		notifier := new(MockNotifier)
		service := newTestService(st)
		service.Notifier = notifier

		st.On("CreateSession", mock.Anything).Return(int64(7), nil)
		notifier.On("SessionRequested", mock.Anything).Return(nil)

		id, err := service.CreateSession(context.Background(), validInput())
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)

		created := st.Calls[0].Arguments.Get(0).(*models.Session)
		assert.Equal(t, "2024-03-10", created.Date1)
		assert.Equal(t, "2024-03-12", created.Date2, "slash date stored canonically")
		notifier.AssertCalled(t, "SessionRequested", mock.Anything)
	})

	t.Run("notification failure does not fail creation", func(t *testing.T) {
		st := new(MockStore)
		notifier := new(MockNotifier)
		service := newTestService(st)
		service.Notifier = notifier

		st.On("CreateSession", mock.Anything).Return(int64(8), nil)
		notifier.On("SessionRequested", mock.Anything).Return(errors.New("smtp down"))

		id, err := service.CreateSession(context.Background(), validInput())
		require.NoError(t, err)
		assert.Equal(t, int64(8), id)
	})
}

func TestConfirmSession(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		st := new(MockStore)
		service := newTestService(st)
		st.On("GetSession", int64(1)).Return(nil, nil)

		err := service.ConfirmSession(context.Background(), 1, &ConfirmSessionInput{DateConfirmed: "2024-03-10"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("canceled session is rejected", func(t *testing.T) {
		st := new(MockStore)
		service := newTestService(st)
		st.On("GetSession", int64(1)).Return(&models.Session{ID: 1, Canceled: true}, nil)

		err := service.ConfirmSession(context.Background(), 1, &ConfirmSessionInput{DateConfirmed: "2024-03-10"})
		assert.ErrorIs(t, err, ErrSessionCanceled)
		st.AssertNotCalled(t, "UpdateSessionFields", mock.Anything, mock.Anything)
	})

	t.Run("unparseable date is rejected", func(t *testing.T) {
		st := new(MockStore)
		service := newTestService(st)
		st.On("GetSession", int64(1)).Return(&models.Session{ID: 1}, nil)

		err := service.ConfirmSession(context.Background(), 1, &ConfirmSessionInput{DateConfirmed: "TBD"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("numeric timestamp is normalized", func(t *testing.T) {
		st := new(MockStore)
		service := newTestService(st)
		st.On("GetSession", int64(1)).Return(&models.Session{ID: 1}, nil)
		st.On("UpdateSessionFields", int64(1), mock.Anything).Return(nil)

		// 2024-03-10T15:04:00Z as JSON decodes numbers to float64
		err := service.ConfirmSession(context.Background(), 1, &ConfirmSessionInput{DateConfirmed: float64(1710083040)})
		require.NoError(t, err)

		fields := st.Calls[1].Arguments.Get(1).(map[string]any)
		assert.Equal(t, "2024-03-10", fields["date_confirmed"])
	})

	t.Run("stores canonical date and optional fields", func(t *testing.T) {
		st := new(MockStore)
		service := newTestService(st)
		st.On("GetSession", int64(1)).Return(&models.Session{ID: 1}, nil)
		st.On("UpdateSessionFields", int64(1), mock.Anything).Return(nil)
		st.On("ReplaceSLOs", int64(1), []string{models.SLOEvaluateInfo}).Return(nil)

		room := "HLC 2405"
		students := 24
		slos := []string{models.SLOEvaluateInfo}
		err := service.ConfirmSession(context.Background(), 1, &ConfirmSessionInput{
			DateConfirmed: "03/10/2024",
			CampusRoom:    &room,
			NumStudents:   &students,
			SLOs:          &slos,
		})
		require.NoError(t, err)

		fields := st.Calls[1].Arguments.Get(1).(map[string]any)
		assert.Equal(t, "2024-03-10", fields["date_confirmed"])
		assert.Equal(t, "HLC 2405", fields["campus_room"])
		assert.Equal(t, 24, fields["num_students"])
		_, hasAssessment := fields["assessment"]
		assert.False(t, hasAssessment, "nil optional field stays untouched")
	})
}

func TestEditSession(t *testing.T) {
	t.Run("canceled session is rejected", func(t *testing.T) {
		st := new(MockStore)
		service := newTestService(st)
		st.On("GetSession", int64(2)).Return(&models.Session{ID: 2, Canceled: true}, nil)

		room := "RRC 101"
		err := service.EditSession(context.Background(), 2, &EditSessionInput{CampusRoom: &room})
		assert.ErrorIs(t, err, ErrSessionCanceled)
	})

	t.Run("independent field edit", func(t *testing.T) {
		st := new(MockStore)
		service := newTestService(st)
		st.On("GetSession", int64(2)).Return(&models.Session{ID: 2, DateConfirmed: "2024-03-10"}, nil)
		st.On("UpdateSessionFields", int64(2), mock.Anything).Return(nil)

		librarian := "Ortiz"
		err := service.EditSession(context.Background(), 2, &EditSessionInput{Librarian: &librarian})
		require.NoError(t, err)

		fields := st.Calls[1].Arguments.Get(1).(map[string]any)
		assert.Equal(t, map[string]any{"librarian": "Ortiz"}, fields)
	})

	t.Run("oversized tag set is rejected", func(t *testing.T) {
		st := new(MockStore)
		service := newTestService(st)
		st.On("GetSession", int64(2)).Return(&models.Session{ID: 2}, nil)
		st.On("UpdateSessionFields", int64(2), mock.Anything).Return(nil)

		slos := append([]string{}, models.AllSLOs[:4]...)
		err := service.EditSession(context.Background(), 2, &EditSessionInput{SLOs: &slos})
		assert.ErrorIs(t, err, ErrValidation)
		st.AssertNotCalled(t, "ReplaceSLOs", mock.Anything, mock.Anything)
	})
}

func TestCancelSession(t *testing.T) {
	t.Run("default reason", func(t *testing.T) {
		st := new(MockStore)
		service := newTestService(st)
		st.On("CancelSession", int64(3), DefaultCancelReason).Return(nil)

		err := service.CancelSession(context.Background(), 3, "")
		require.NoError(t, err)
		st.AssertExpectations(t)
	})

	t.Run("caller reason wins", func(t *testing.T) {
		st := new(MockStore)
		service := newTestService(st)
		st.On("CancelSession", int64(3), "Campus closure").Return(nil)

		err := service.CancelSession(context.Background(), 3, "Campus closure")
		require.NoError(t, err)
		st.AssertExpectations(t)
	})
}

func TestListSessions(t *testing.T) {
	st := new(MockStore)
	service := newTestService(st)
	st.On("ListSessions").Return([]models.Session{
		{ID: 1, Campus: "Highland", Librarian: "Reid", DateConfirmed: "2024-03-11"},
		{ID: 2, Campus: "Eastview", Librarian: "Ortiz"},
		{ID: 3, Campus: "Highland", Librarian: "Reid", Canceled: true},
	}, nil)

	t.Run("annotates class and weekday", func(t *testing.T) {
		rows, err := service.ListSessions(ListFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, lifecycle.ClassConfirmed, rows[0].Class)
		assert.Equal(t, "Monday", rows[0].DayOfWeek)
		assert.Equal(t, lifecycle.ClassRequest, rows[1].Class)
		assert.Empty(t, rows[1].DayOfWeek)
		assert.Equal(t, lifecycle.ClassCanceled, rows[2].Class)
	})

	t.Run("filters compose", func(t *testing.T) {
		rows, err := service.ListSessions(ListFilter{
			Campus: "Highland",
			Class:  lifecycle.ClassConfirmed,
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(1), rows[0].ID)
	})
}

func TestDashboard(t *testing.T) {
	st := new(MockStore)
	service := newTestService(st)
	st.On("ListSessions").Return([]models.Session{
		{Librarian: "Reid", Type: models.TypeInPerson, Campus: "Highland", DateConfirmed: "2024-03-10"},
		{Librarian: "Reid", Type: models.TypeSynchronous},
	}, nil)

	dash, err := service.Dashboard(context.Background(), lifecycle.ClassConfirmed)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.UnconfirmedCount)
	require.Len(t, dash.LibrarianTotals, 1)
	assert.Equal(t, 1, dash.LibrarianTotals[0].Total)
}
