// Package meeting holds the per-room view controller: attendance tracking,
// layout choice, participant panel and report export for one call session.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/MeetingRoom/internal/attendance"
	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/dkeye/MeetingRoom/internal/layout"
	"github.com/dkeye/MeetingRoom/internal/report"
	"github.com/rs/zerolog/log"
)

// HomePath is where the viewer is sent after leaving a room.
const HomePath = "/"

var ErrRoomLeft = errors.New("meeting: room already left")

// CallSession is the call engine the controller observes.
type CallSession interface {
	Presence() <-chan domain.PresenceEvent
	Leave(ctx context.Context) error
	Personal() bool
}

// Navigator moves the viewer to another page.
type Navigator func(path string)

type Config struct {
	// SelfID is the viewer's own attendee id.
	SelfID domain.UserID
	// IncludeSelf keeps the viewer's records in the report.
	IncludeSelf bool
	// SelfJoinImplicit tells that the session never announces the viewer's
	// own join, so the controller records it at construction.
	SelfJoinImplicit bool

	TimeLayout string
	Location   *time.Location
	Now        func() time.Time
}

// View is the state the UI shell renders.
type View struct {
	Layout              layout.Layout        `json:"layout"`
	ParticipantsVisible bool                 `json:"participants_visible"`
	Personal            bool                 `json:"personal"`
	ShowEndCall         bool                 `json:"show_end_call"`
	Records             int                  `json:"records"`
	Anomalies           attendance.Anomalies `json:"anomalies"`
}

type Controller struct {
	session  CallSession
	sink     report.Sink
	navigate Navigator

	store     *attendance.Store
	presence  *attendance.Handler
	layout    *layout.Selector
	generator *report.Generator

	mu           sync.Mutex
	participants bool
	left         bool
}

// New builds a controller for one room view. sink and navigate may be nil.
func New(session CallSession, sink report.Sink, navigate Navigator, cfg Config) *Controller {
	store := attendance.NewStore()
	opts := report.Options{TimeLayout: cfg.TimeLayout, Location: cfg.Location}
	if !cfg.IncludeSelf && cfg.SelfID != "" {
		opts.Exclude = []domain.UserID{cfg.SelfID}
	}
	c := &Controller{
		session:   session,
		sink:      sink,
		navigate:  navigate,
		store:     store,
		presence:  attendance.NewHandler(store, cfg.Now),
		layout:    layout.NewSelector(),
		generator: report.NewGenerator(opts),
	}
	if cfg.IncludeSelf && cfg.SelfJoinImplicit && cfg.SelfID != "" {
		c.presence.OnImplicitJoin(cfg.SelfID)
	}
	return c
}

// Run forwards the session's presence events until it closes them or ctx is done.
func (c *Controller) Run(ctx context.Context) {
	c.presence.Run(ctx, c.session.Presence())
	log.Info().Str("module", "meeting").Int("records", c.store.Len()).Msg("presence stream ended")
}

func (c *Controller) ToggleParticipants() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.participants = !c.participants
	return c.participants
}

func (c *Controller) ParticipantsVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participants
}

func (c *Controller) Layout() layout.Layout { return c.layout.Current() }

// SetLayout accepts any of the menu labels; unknown values are rejected.
func (c *Controller) SetLayout(s string) error {
	l, err := layout.ParseLayout(s)
	if err != nil {
		return err
	}
	return c.layout.Set(l)
}

// Report renders the current attendance snapshot without persisting it.
func (c *Controller) Report() (report.Report, error) {
	return c.generator.Generate(c.store.Snapshot())
}

// ExportReport renders the report and hands it to the configured sink.
func (c *Controller) ExportReport(ctx context.Context) (report.Report, error) {
	if c.sink == nil {
		return report.Report{}, errors.New("meeting: no report sink configured")
	}
	return c.ExportTo(ctx, c.sink)
}

// ExportTo renders the report and hands it to sink. Sink failures leave the
// attendance history untouched, so retrying is safe.
func (c *Controller) ExportTo(ctx context.Context, sink report.Sink) (report.Report, error) {
	r, err := c.Report()
	if err != nil {
		return report.Report{}, err
	}
	if err := sink.Save(ctx, r); err != nil {
		log.Error().Err(err).Str("module", "meeting").Msg("report persistence failed")
		return report.Report{}, fmt.Errorf("meeting: save report: %w", err)
	}
	return r, nil
}

// Leave ends the viewer's session and navigates home. The attendance
// history is discarded with the controller.
func (c *Controller) Leave(ctx context.Context) error {
	c.mu.Lock()
	if c.left {
		c.mu.Unlock()
		return ErrRoomLeft
	}
	c.left = true
	c.mu.Unlock()

	if err := c.session.Leave(ctx); err != nil {
		c.mu.Lock()
		c.left = false
		c.mu.Unlock()
		return fmt.Errorf("meeting: leave session: %w", err)
	}
	if c.navigate != nil {
		c.navigate(HomePath)
	}
	return nil
}

func (c *Controller) View() View {
	personal := c.session.Personal()
	return View{
		Layout:              c.layout.Current(),
		ParticipantsVisible: c.ParticipantsVisible(),
		Personal:            personal,
		ShowEndCall:         !personal,
		Records:             c.store.Len(),
		Anomalies:           c.store.Anomalies(),
	}
}
