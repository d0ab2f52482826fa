package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type DeliveryType string

const (
	TypeInPerson     DeliveryType = "In-Person"
	TypeAsynchronous DeliveryType = "Asynchronous"
	TypeSynchronous  DeliveryType = "Synchronous"
)

// DeliveryTypes lists every delivery type in report-column order.
var DeliveryTypes = []DeliveryType{TypeInPerson, TypeAsynchronous, TypeSynchronous}

func (t DeliveryType) Valid() bool {
	switch t {
	case TypeInPerson, TypeAsynchronous, TypeSynchronous:
		return true
	}
	return false
}

// Session is one instruction-delivery engagement. Date columns are stored as
// text because historical rows carry several formats; internal/dates
// normalizes them on the read path.
type Session struct {
	ID             int64        `db:"id" json:"id"`
	First          string       `db:"first" json:"first"`
	Last           string       `db:"last" json:"last"`
	Email          string       `db:"email" json:"email"`
	Date1          string       `db:"date_1" json:"date_1"`
	Date2          string       `db:"date_2" json:"date_2"`
	Type           DeliveryType `db:"session_type" json:"type"`
	Campus         string       `db:"campus" json:"campus"`
	Librarian      string       `db:"librarian" json:"librarian"`
	CourseCode     string       `db:"course_code" json:"course_code"`
	CourseNumber   string       `db:"course_number" json:"course_number"`
	DateConfirmed  string       `db:"date_confirmed" json:"date_confirmed"`
	CampusRoom     string       `db:"campus_room" json:"campus_room"`
	NumStudents    int          `db:"num_students" json:"num_students"`
	Assessment     string       `db:"assessment" json:"assessment"`
	Canceled       bool         `db:"canceled" json:"canceled"`
	CanceledReason string       `db:"canceled_reason" json:"canceled_reason"`

	SLOs []string `db:"-" json:"slos"`
}

// SessionSLO is one (session, tag) row. Rows are owned by their session and
// cascade-deleted with it.
type SessionSLO struct {
	ID        int64  `db:"id" json:"id"`
	SessionID int64  `db:"session_id" json:"session_id"`
	SLO       string `db:"slo" json:"slo"`
}

// CreateSessionInput carries the requested-state fields of a new session.
// Campus is required for In-Person sessions and must be empty otherwise.
type CreateSessionInput struct {
	First        string       `json:"first" validate:"required"`
	Last         string       `json:"last" validate:"required"`
	Email        string       `json:"email" validate:"required,email"`
	Date1        string       `json:"date_1" validate:"required"`
	Date2        string       `json:"date_2" validate:"required"`
	Type         DeliveryType `json:"type" validate:"required"`
	Campus       string       `json:"campus" validate:"required_if=Type In-Person,excluded_unless=Type In-Person"`
	Librarian    string       `json:"librarian" validate:"required"`
	CourseCode   string       `json:"course_code" validate:"required,len=4"`
	CourseNumber string       `json:"course_number" validate:"required,len=4"`
	SLOs         []string     `json:"slos" validate:"max=3"`
}

var validate = validator.New()

func (in *CreateSessionInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return fmt.Errorf("unknown delivery type: %q", in.Type)
	}
	for _, slo := range in.SLOs {
		if !ValidSLO(slo) {
			return fmt.Errorf("unknown SLO: %q", slo)
		}
	}
	return nil
}
