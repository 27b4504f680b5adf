package schedule

import "time"

// GroupDays is the number of consecutive dates printed on one page.
const GroupDays = 3

// Group is one printable date-group: three consecutive calendar days
// starting on a Monday. The positional role of each day selects its grid
// rule (Monday and Tuesday share the long-lunch layout, Wednesday starts
// early).
type Group struct {
	Days [GroupDays]time.Time
}

// NewGroup builds a group from its first day.
func NewGroup(first time.Time) Group {
	var g Group
	first = at(first, 0, 0)
	for i := range g.Days {
		g.Days[i] = first.AddDate(0, 0, i)
	}
	return g
}

// First returns the group's first date.
func (g Group) First() time.Time { return g.Days[0] }

// Last returns the group's last date.
func (g Group) Last() time.Time { return g.Days[GroupDays-1] }

// RoleFor returns the grid role for the day at position i.
func RoleFor(i int) Role {
	if i == GroupDays-1 {
		return RoleEarlyStart
	}
	return RoleLongLunch
}

// MondayOfISOWeek returns the Monday of the given ISO 8601 week, at
// midnight in loc. January 4th is always inside week 1.
func MondayOfISOWeek(year, week int, loc *time.Location) time.Time {
	t := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	// Back up to the Monday of week 1.
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := t.AddDate(0, 0, 1-weekday)
	return monday.AddDate(0, 0, (week-1)*7)
}

// Groups returns one date-group per requested week, starting at the given
// ISO week of the given year.
func Groups(year, startWeek, weeks int, loc *time.Location) []Group {
	if weeks <= 0 {
		return nil
	}
	out := make([]Group, 0, weeks)
	for w := 0; w < weeks; w++ {
		monday := MondayOfISOWeek(year, startWeek+w, loc)
		out = append(out, NewGroup(monday))
	}
	return out
}
