// internal/reports/reports.go
package reports

import (
	"sort"
	"time"

	"github.com/cassidycr/accildatabase/internal/dates"
	"github.com/cassidycr/accildatabase/internal/lifecycle"
	"github.com/cassidycr/accildatabase/internal/models"
)

// YTDLabel is the synthetic final row of the monthly table.
const YTDLabel = "Year to Date (YTD)"

type CampusCount struct {
	Campus string `json:"campus"`
	Total  int    `json:"total"`
}

type LibrarianCount struct {
	Librarian string `json:"librarian"`
	Total     int    `json:"total"`
}

type TypeBreakdownRow struct {
	Librarian    string `json:"librarian"`
	InPerson     int    `json:"in_person"`
	Asynchronous int    `json:"asynchronous"`
	Synchronous  int    `json:"synchronous"`
	Total        int    `json:"total"`
}

type MonthCount struct {
	Month string `json:"month"`
	Total int    `json:"total"`
}

type SLOCount struct {
	SLO   string `json:"slo"`
	Count int    `json:"count"`
}

// Dashboard bundles the five report artifacts plus the unconfirmed-request
// headline count. All fields are derived from a snapshot of the session
// table; nothing here mutates the store.
type Dashboard struct {
	UnconfirmedCount int                `json:"unconfirmed_count"`
	CampusTotals     []CampusCount      `json:"campus_totals"`
	LibrarianTotals  []LibrarianCount   `json:"librarian_totals"`
	TypeBreakdown    []TypeBreakdownRow `json:"type_breakdown"`
	MonthlyTotals    []MonthCount       `json:"monthly_totals"`
	SLOCounts        []SLOCount         `json:"slo_counts"`
}

// Filter returns the sessions whose lifecycle class is in classes. An empty
// class list selects everything.
func Filter(sessions []models.Session, classes ...lifecycle.Class) []models.Session {
	if len(classes) == 0 {
		return sessions
	}
	var out []models.Session
	for i := range sessions {
		class := lifecycle.Classify(&sessions[i])
		for _, want := range classes {
			if class == want {
				out = append(out, sessions[i])
				break
			}
		}
	}
	return out
}

// CampusTotals counts sessions per campus. Sessions without a campus
// (non-In-Person deliveries) are not rows here.
func CampusTotals(sessions []models.Session) []CampusCount {
	counts := make(map[string]int)
	for i := range sessions {
		if sessions[i].Campus == "" {
			continue
		}
		counts[sessions[i].Campus]++
	}

	out := make([]CampusCount, 0, len(counts))
	for campus, n := range counts {
		out = append(out, CampusCount{Campus: campus, Total: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Campus < out[j].Campus
	})
	return out
}

// LibrarianTotals counts sessions per assigned librarian.
func LibrarianTotals(sessions []models.Session) []LibrarianCount {
	counts := make(map[string]int)
	for i := range sessions {
		if sessions[i].Librarian == "" {
			continue
		}
		counts[sessions[i].Librarian]++
	}

	out := make([]LibrarianCount, 0, len(counts))
	for librarian, n := range counts {
		out = append(out, LibrarianCount{Librarian: librarian, Total: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Librarian < out[j].Librarian
	})
	return out
}

// TypeBreakdown cross-tabulates librarians against the three delivery types.
// Every type column is present in every row even when zero; Total is the row
// sum. Rows are sorted by librarian name.
func TypeBreakdown(sessions []models.Session) []TypeBreakdownRow {
	rows := make(map[string]*TypeBreakdownRow)
	for i := range sessions {
		s := &sessions[i]
		if s.Librarian == "" {
			continue
		}
		row, ok := rows[s.Librarian]
		if !ok {
			row = &TypeBreakdownRow{Librarian: s.Librarian}
			rows[s.Librarian] = row
		}
		switch s.Type {
		case models.TypeInPerson:
			row.InPerson++
		case models.TypeAsynchronous:
			row.Asynchronous++
		case models.TypeSynchronous:
			row.Synchronous++
		}
	}

	out := make([]TypeBreakdownRow, 0, len(rows))
	for _, row := range rows {
		row.Total = row.InPerson + row.Asynchronous + row.Synchronous
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Librarian < out[j].Librarian
	})
	return out
}

// MonthlyTotals buckets sessions by the calendar month of their confirmed
// date, in true chronological order, and appends the YTD summary row.
// Sessions whose confirmed date does not normalize are excluded.
func MonthlyTotals(sessions []models.Session) []MonthCount {
	type bucket struct {
		sort  time.Time
		count int
	}
	buckets := make(map[string]*bucket)
	for i := range sessions {
		d, ok := dates.NormalizeString(sessions[i].DateConfirmed)
		if !ok {
			continue
		}
		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		label := month.Format("January 2006")
		b, ok := buckets[label]
		if !ok {
			b = &bucket{sort: month}
			buckets[label] = b
		}
		b.count++
	}

	type labeled struct {
		label string
		bucket
	}
	ordered := make([]labeled, 0, len(buckets))
	for label, b := range buckets {
		ordered = append(ordered, labeled{label: label, bucket: *b})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].sort.Before(ordered[j].sort)
	})

	out := make([]MonthCount, 0, len(ordered)+1)
	ytd := 0
	for _, m := range ordered {
		out = append(out, MonthCount{Month: m.label, Total: m.count})
		ytd += m.count
	}
	out = append(out, MonthCount{Month: YTDLabel, Total: ytd})
	return out
}

// SLOCounts flattens every session's tag set into per-tag totals, sorted
// descending by count.
func SLOCounts(sessions []models.Session) []SLOCount {
	counts := make(map[string]int)
	for i := range sessions {
		for _, slo := range sessions[i].SLOs {
			counts[slo]++
		}
	}

	out := make([]SLOCount, 0, len(counts))
	for slo, n := range counts {
		out = append(out, SLOCount{SLO: slo, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].SLO < out[j].SLO
	})
	return out
}

// Build assembles the full dashboard. The five tables are computed over the
// class-filtered subset; the unconfirmed headline always counts open
// requests in the full set.
func Build(sessions []models.Session, classes ...lifecycle.Class) Dashboard {
	filtered := Filter(sessions, classes...)

	unconfirmed := 0
	for i := range sessions {
		if lifecycle.Classify(&sessions[i]) == lifecycle.ClassRequest {
			unconfirmed++
		}
	}

	return Dashboard{
		UnconfirmedCount: unconfirmed,
		CampusTotals:     CampusTotals(filtered),
		LibrarianTotals:  LibrarianTotals(filtered),
		TypeBreakdown:    TypeBreakdown(filtered),
		MonthlyTotals:    MonthlyTotals(filtered),
		SLOCounts:        SLOCounts(filtered),
	}
}
