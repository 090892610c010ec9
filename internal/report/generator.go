// Package report renders attendance history as a CSV file.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	FileName    = "meeting_report.csv"
	ContentType = "text/csv"

	// DefaultTimeLayout follows the shape of an en-US locale date-time.
	DefaultTimeLayout = "1/2/2006, 3:04:05 PM"
)

// ErrNothingToExport means there are no records; no file is produced.
var ErrNothingToExport = errors.New("report: nothing to export")

var header = []string{"Attendee ID", "Join Time", "Exit Time"}

// Report is a rendered CSV payload ready to be persisted.
type Report struct {
	FileName    string
	ContentType string
	Data        []byte
	Rows        int // data rows, header excluded
}

type Options struct {
	TimeLayout string
	Location   *time.Location
	// Exclude drops records of these attendees, e.g. the viewer itself.
	Exclude []domain.UserID
}

type Generator struct {
	layout  string
	loc     *time.Location
	exclude map[domain.UserID]struct{}
}

func NewGenerator(opts Options) *Generator {
	g := &Generator{
		layout:  opts.TimeLayout,
		loc:     opts.Location,
		exclude: make(map[domain.UserID]struct{}, len(opts.Exclude)),
	}
	if g.layout == "" {
		g.layout = DefaultTimeLayout
	}
	if g.loc == nil {
		g.loc = time.Local
	}
	for _, id := range opts.Exclude {
		g.exclude[id] = struct{}{}
	}
	return g
}

// Generate renders records in the given order. Records with an exit before
// their join are written as-is.
func (g *Generator) Generate(records []domain.AttendanceRecord) (Report, error) {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for _, r := range records {
		if _, skip := g.exclude[r.AttendeeID]; skip {
			continue
		}
		rows = append(rows, g.row(r))
	}
	if len(rows) == 1 {
		log.Info().Str("module", "report").Msg("no attendees to generate report for")
		return Report{}, ErrNothingToExport
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return Report{}, fmt.Errorf("report: encode csv: %w", err)
	}

	log.Info().Str("module", "report").Int("rows", len(rows)-1).Msg("report generated")
	return Report{
		FileName:    FileName,
		ContentType: ContentType,
		Data:        buf.Bytes(),
		Rows:        len(rows) - 1,
	}, nil
}

func (g *Generator) row(r domain.AttendanceRecord) []string {
	exit := ""
	if t, ok := r.Exited(); ok {
		exit = g.format(t)
	}
	return []string{string(r.AttendeeID), g.format(r.Joined()), exit}
}

func (g *Generator) format(t time.Time) string {
	return t.In(g.loc).Format(g.layout)
}
