package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/MeetingRoom/internal/domain"
)

func newTestGenerator(exclude ...domain.UserID) *Generator {
	return NewGenerator(Options{Location: time.UTC, Exclude: exclude})
}

func fmtMs(ms int64) string {
	return time.UnixMilli(ms).In(time.UTC).Format(DefaultTimeLayout)
}

func parse(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse csv: %v", err)
	}
	return rows
}

func TestGenerate_EmptyIsNothingToExport(t *testing.T) {
	r, err := newTestGenerator().Generate(nil)
	if !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("err = %v, want ErrNothingToExport", err)
	}
	if r.Data != nil {
		t.Errorf("payload = %q, want none", r.Data)
	}
}

func TestGenerate_TwoRecords(t *testing.T) {
	records := []domain.AttendanceRecord{
		{AttendeeID: "A", JoinTime: 1000, ExitTime: 2000},
		{AttendeeID: "B", JoinTime: 3000},
	}

	r, err := newTestGenerator().Generate(records)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if r.FileName != "meeting_report.csv" || r.ContentType != "text/csv" {
		t.Errorf("file = %q type = %q", r.FileName, r.ContentType)
	}
	if r.Rows != 2 {
		t.Errorf("Rows = %d, want 2", r.Rows)
	}

	rows := parse(t, r.Data)
	want := [][]string{
		{"Attendee ID", "Join Time", "Exit Time"},
		{"A", fmtMs(1000), fmtMs(2000)},
		{"B", fmtMs(3000), ""},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %q, want %q", i, rows[i], want[i])
		}
	}
}

func TestGenerate_UsesNewlineSeparator(t *testing.T) {
	r, err := newTestGenerator().Generate([]domain.AttendanceRecord{{AttendeeID: "A", JoinTime: 1000}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if bytes.Contains(r.Data, []byte("\r\n")) {
		t.Error("payload uses CRLF")
	}
	if !bytes.HasPrefix(r.Data, []byte("Attendee ID,Join Time,Exit Time\n")) {
		t.Errorf("unexpected header line: %q", r.Data)
	}
}

func TestGenerate_QuotesSpecialCharacters(t *testing.T) {
	ids := []domain.UserID{`doe, jane`, `say "hi"`, "multi\nline"}
	records := make([]domain.AttendanceRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, domain.AttendanceRecord{AttendeeID: id, JoinTime: 1000})
	}

	r, err := newTestGenerator().Generate(records)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.Contains(r.Data, []byte(`"doe, jane"`)) {
		t.Errorf("comma field not quoted: %q", r.Data)
	}

	rows := parse(t, r.Data)
	for i, id := range ids {
		if rows[i+1][0] != string(id) {
			t.Errorf("round-trip id = %q, want %q", rows[i+1][0], id)
		}
	}
}

func TestGenerate_MalformedRecordRenderedVerbatim(t *testing.T) {
	r, err := newTestGenerator().Generate([]domain.AttendanceRecord{
		{AttendeeID: "late", JoinTime: 9000, ExitTime: 1000},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	rows := parse(t, r.Data)
	if rows[1][1] != fmtMs(9000) || rows[1][2] != fmtMs(1000) {
		t.Errorf("row = %q", rows[1])
	}
}

func TestGenerate_ExcludesIDs(t *testing.T) {
	g := newTestGenerator("me")

	_, err := g.Generate([]domain.AttendanceRecord{{AttendeeID: "me", JoinTime: 1000}})
	if !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("err = %v, want ErrNothingToExport when only excluded ids", err)
	}

	r, err := g.Generate([]domain.AttendanceRecord{
		{AttendeeID: "me", JoinTime: 1000},
		{AttendeeID: "you", JoinTime: 2000},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	rows := parse(t, r.Data)
	if len(rows) != 2 || rows[1][0] != "you" {
		t.Errorf("rows = %q", rows)
	}
}

func TestGenerate_CustomLayoutAndZone(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	g := NewGenerator(Options{TimeLayout: time.RFC3339, Location: loc})

	r, err := g.Generate([]domain.AttendanceRecord{{AttendeeID: "A", JoinTime: 0 + 60_000}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	rows := parse(t, r.Data)
	if rows[1][1] != "1970-01-01T02:01:00+02:00" {
		t.Errorf("join = %q", rows[1][1])
	}
}
