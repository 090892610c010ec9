// Package layout holds the viewer's choice of video tile arrangement.
package layout

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrInvalidLayout = errors.New("invalid layout")

type Layout string

const (
	Grid         Layout = "grid"
	SpeakerLeft  Layout = "speaker-left"
	SpeakerRight Layout = "speaker-right"

	Default = SpeakerLeft
)

// All lists the selectable layouts in menu order.
func All() []Layout {
	return []Layout{Grid, SpeakerLeft, SpeakerRight}
}

func (l Layout) Valid() bool {
	switch l {
	case Grid, SpeakerLeft, SpeakerRight:
		return true
	}
	return false
}

// ParseLayout accepts menu labels in any case ("Speaker-Left").
func ParseLayout(s string) (Layout, error) {
	l := Layout(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLayout, s)
	}
	return l, nil
}

// Selector is the current layout. Every layout is reachable from every other.
type Selector struct {
	mu      sync.RWMutex
	current Layout
}

func NewSelector() *Selector {
	return &Selector{current: Default}
}

func (s *Selector) Current() Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set switches to l. Out-of-set values are rejected and the state is kept.
func (s *Selector) Set(l Layout) error {
	if !l.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLayout, l)
	}
	s.mu.Lock()
	s.current = l
	s.mu.Unlock()
	return nil
}
