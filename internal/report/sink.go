package report

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Sink persists a generated report. Save must be safe to retry with the
// same report.
type Sink interface {
	Save(ctx context.Context, r Report) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Report) error

func (f SinkFunc) Save(ctx context.Context, r Report) error { return f(ctx, r) }

// FileSink archives reports under dir/<scope>/<file name>, overwriting any
// earlier export of the same scope.
type FileSink struct {
	fs    afero.Fs
	dir   string
	scope string
}

func NewFileSink(fs afero.Fs, dir, scope string) *FileSink {
	return &FileSink{fs: fs, dir: dir, scope: scope}
}

// Path is where Save writes the report.
func (s *FileSink) Path(r Report) string {
	return filepath.Join(s.dir, s.scope, r.FileName)
}

func (s *FileSink) Save(ctx context.Context, r Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(r)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, r.Data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	log.Info().Str("module", "report.sink").Str("path", path).Int("bytes", len(r.Data)).Msg("report saved")
	return nil
}
