// Package attendance records who was present in a call and when.
package attendance

import (
	"sync"

	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Anomalies counts presence events that did not line up with the history.
type Anomalies struct {
	// UnmatchedExits are exits for an id with no open record.
	UnmatchedExits int `json:"unmatched_exits"`
	// OverlappingOpen are exits that found more than one open record for the id.
	OverlappingOpen int `json:"overlapping_open"`
	// InvalidExits are exits at instant 0, which is reserved for "still present".
	InvalidExits int `json:"invalid_exits"`
}

// Store is an append-only, insertion-ordered list of attendance records.
// Records are never removed while the session lives.
type Store struct {
	mu        sync.RWMutex
	records   []domain.AttendanceRecord
	anomalies Anomalies
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Append(rec domain.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// MarkExit closes the most recently created open record for id.
// Older open records for the same id stay open and are reported as an anomaly.
// It returns false when nothing was open for id or at is 0.
func (s *Store) MarkExit(id domain.UserID, at int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if at == 0 {
		s.anomalies.InvalidExits++
		log.Warn().Str("module", "attendance.store").Str("attendee", string(id)).Msg("exit at zero instant ignored")
		return false
	}

	target, open := -1, 0
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if r.AttendeeID != id || !r.Open() {
			continue
		}
		open++
		if target < 0 {
			target = i
		}
	}

	if target < 0 {
		s.anomalies.UnmatchedExits++
		log.Warn().Str("module", "attendance.store").Str("attendee", string(id)).Msg("exit without open record")
		return false
	}
	if open > 1 {
		s.anomalies.OverlappingOpen++
		log.Warn().Str("module", "attendance.store").Str("attendee", string(id)).Int("open", open).Msg("multiple open records, closing most recent")
	}
	s.records[target].ExitTime = at
	return true
}

// HasOpen reports whether id has a record without an exit.
func (s *Store) HasOpen(id domain.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		if r := s.records[i]; r.AttendeeID == id && r.Open() {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of all records in insertion order.
func (s *Store) Snapshot() []domain.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AttendanceRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Anomalies() Anomalies {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anomalies
}
