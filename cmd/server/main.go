package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	router "github.com/dkeye/MeetingRoom/internal/adapters/http"
	"github.com/dkeye/MeetingRoom/internal/app"
	"github.com/dkeye/MeetingRoom/internal/app/orch"
	"github.com/dkeye/MeetingRoom/internal/config"
	"github.com/dkeye/MeetingRoom/internal/meeting"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logger first so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	loc, err := cfg.Report.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid report timezone")
	}

	rooms := app.NewRoomManager(ctx, cfg.Attendance.EventBuffer)
	reg := app.NewRegistry()

	o := orch.New(reg, rooms, app.NewStrikePolicy(cfg.Signal.SlowStrikes), orch.Settings{
		Meeting: meeting.Config{
			IncludeSelf:      cfg.Attendance.IncludeSelf,
			SelfJoinImplicit: cfg.Attendance.SelfJoinImplicit,
			TimeLayout:       cfg.Report.TimeLayout,
			Location:         loc,
		},
		ReportFS:  afero.NewOsFs(),
		ReportDir: cfg.Report.Dir,
	})

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("reports", cfg.Report.Dir).Msg("MeetingRoom server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
