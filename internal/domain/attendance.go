package domain

import "time"

// AttendanceRecord is one join/exit interval of one participant appearance.
// Rejoining produces a new record, records are never merged.
type AttendanceRecord struct {
	AttendeeID UserID
	JoinTime   int64 // epoch milliseconds
	ExitTime   int64 // epoch milliseconds, 0 while the attendee is present
}

func NewAttendanceRecord(id UserID, joined time.Time) AttendanceRecord {
	return AttendanceRecord{AttendeeID: id, JoinTime: joined.UnixMilli()}
}

func (r AttendanceRecord) Open() bool { return r.ExitTime == 0 }

func (r AttendanceRecord) Joined() time.Time { return time.UnixMilli(r.JoinTime) }

// Exited reports the exit instant; ok is false while the record is open.
func (r AttendanceRecord) Exited() (t time.Time, ok bool) {
	if r.Open() {
		return time.Time{}, false
	}
	return time.UnixMilli(r.ExitTime), true
}
