package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/cassidycr/accildatabase/internal/lifecycle"
	"github.com/cassidycr/accildatabase/internal/reports"
	"github.com/cassidycr/accildatabase/internal/store"
)

// CSVExporter periodically dumps the dashboard report tables to CSV files so
// the library staff can pull them into spreadsheets.
type CSVExporter struct {
	store     store.SessionStore
	scheduler *gocron.Scheduler
	dir       string
	classes   []lifecycle.Class
}

func NewCSVExporter(st store.SessionStore, schedule, dir string, classNames []string) (*CSVExporter, error) {
	classes := make([]lifecycle.Class, 0, len(classNames))
	for _, name := range classNames {
		class, ok := lifecycle.ParseClass(name)
		if !ok {
			return nil, fmt.Errorf("unknown class in export config: %q", name)
		}
		classes = append(classes, class)
	}

	e := &CSVExporter{
		store:     st,
		scheduler: gocron.NewScheduler(time.UTC),
		dir:       dir,
		classes:   classes,
	}

	if _, err := e.scheduler.Cron(schedule).Do(func() {
		if err := e.Export(); err != nil {
			logger.Error.Printf("Export failed: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule export: %w", err)
	}

	return e, nil
}

func (e *CSVExporter) Start() {
	e.scheduler.StartAsync()
}

func (e *CSVExporter) Stop() {
	e.scheduler.Stop()
}

// Export builds the dashboard once and writes each table as its own file.
func (e *CSVExporter) Export() error {
	sessions, err := e.store.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	dash := reports.Build(sessions, e.classes...)

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	tables := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{
			name:   "campus_totals",
			header: []string{"Campus", "Total Sessions"},
			rows:   campusRows(dash.CampusTotals),
		},
		{
			name:   "librarian_totals",
			header: []string{"Librarian", "Total Sessions"},
			rows:   librarianRows(dash.LibrarianTotals),
		},
		{
			name:   "type_breakdown",
			header: []string{"Librarian", "In-Person", "Asynchronous", "Synchronous", "Total"},
			rows:   breakdownRows(dash.TypeBreakdown),
		},
		{
			name:   "monthly_totals",
			header: []string{"Month", "Total Sessions"},
			rows:   monthRows(dash.MonthlyTotals),
		},
		{
			name:   "slo_counts",
			header: []string{"SLO", "Count"},
			rows:   sloRows(dash.SLOCounts),
		},
	}

	for _, table := range tables {
		if err := e.writeTable(table.name, table.header, table.rows); err != nil {
			return err
		}
	}

	logger.Info.Printf("Exported %d report tables to %s", len(tables), e.dir)
	return nil
}

func (e *CSVExporter) writeTable(name string, header []string, rows [][]string) error {
	path := filepath.Join(e.dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}
	w.Flush()
	return w.Error()
}

func campusRows(counts []reports.CampusCount) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Campus, strconv.Itoa(c.Total)})
	}
	return rows
}

func librarianRows(counts []reports.LibrarianCount) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Librarian, strconv.Itoa(c.Total)})
	}
	return rows
}

func breakdownRows(breakdown []reports.TypeBreakdownRow) [][]string {
	rows := make([][]string, 0, len(breakdown))
	for _, b := range breakdown {
		rows = append(rows, []string{
			b.Librarian,
			strconv.Itoa(b.InPerson),
			strconv.Itoa(b.Asynchronous),
			strconv.Itoa(b.Synchronous),
			strconv.Itoa(b.Total),
		})
	}
	return rows
}

func monthRows(counts []reports.MonthCount) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Month, strconv.Itoa(c.Total)})
	}
	return rows
}

func sloRows(counts []reports.SLOCount) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.SLO, strconv.Itoa(c.Count)})
	}
	return rows
}
