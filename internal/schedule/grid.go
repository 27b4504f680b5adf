package schedule

import "time"

// Role selects which grid rule applies to a day within a date-group.
// The first two days of a group share a late start with a long lunch
// block; the third day starts early and ends earlier.
type Role int

const (
	RoleLongLunch Role = iota
	RoleEarlyStart
)

// DefaultSlotDuration is the base grid granularity.
const DefaultSlotDuration = 20 * time.Minute

// Grid returns the ordered slot start times for one day. The boundary
// times and the uneven pre-lunch spacing are fixed layout constants; a
// change here shifts every printed page.
//
// RoleLongLunch: 10:30, +2Δ, +Δ, a single 12:00 lunch slot, then every Δ
// from 13:00 through 19:20.
//
// RoleEarlyStart: 8:00, then every Δ from 8:00+2Δ through 11:20, a single
// 12:00 lunch slot, then every Δ from 13:00 through 17:00.
func Grid(day time.Time, role Role, slot time.Duration) []time.Time {
	if slot <= 0 {
		slot = DefaultSlotDuration
	}

	var out []time.Time

	switch role {
	case RoleEarlyStart:
		t := at(day, 8, 0)
		out = append(out, t)
		for t = t.Add(2 * slot); !t.After(at(day, 11, 20)); t = t.Add(slot) {
			out = append(out, t)
		}
		out = append(out, at(day, 12, 0))
		for t = at(day, 13, 0); !t.After(at(day, 17, 0)); t = t.Add(slot) {
			out = append(out, t)
		}
	default:
		t := at(day, 10, 30)
		out = append(out, t)
		t = t.Add(2 * slot)
		out = append(out, t)
		t = t.Add(slot)
		out = append(out, t)
		out = append(out, at(day, 12, 0))
		for t = at(day, 13, 0); !t.After(at(day, 19, 20)); t = t.Add(slot) {
			out = append(out, t)
		}
	}

	return out
}

// at anchors a wall-clock time on the given day, in the day's location.
func at(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location())
}
