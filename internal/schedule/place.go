package schedule

import (
	"time"

	"wochenplan/internal/model"
)

// ContinuationMarker is appended to every slot an event occupies after
// its starting slot. The renderer prints it literally.
const ContinuationMarker = "|"

// Cell holds the text lines accumulated in one grid slot. Multiple events
// landing in the same slot accumulate in encounter order.
type Cell []string

// Place maps each event onto the slot grid of one day and returns one
// cell per grid entry, in grid order.
//
// The starting slot is the grid entry nearest in absolute time to the
// event start; ties resolve to the earliest index. The number of occupied
// slots is the event duration divided (truncated) by the base slot
// duration. The division deliberately uses the base duration even across
// the unevenly spaced pre-lunch block, so spans there can misalign with
// the printed grid; the printed layout depends on that behavior.
// Continuation markers past the end of the grid are dropped. An event
// with zero or negative duration contributes only its starting text.
func Place(day time.Time, grid []time.Time, events []model.Event, slot time.Duration) []Cell {
	if slot <= 0 {
		slot = DefaultSlotDuration
	}

	cells := make([]Cell, len(grid))
	if len(grid) == 0 {
		return cells
	}

	for _, ev := range events {
		start := at(day, ev.Start.Hour(), ev.Start.Minute())
		end := at(day, ev.End.Hour(), ev.End.Minute())

		idx := nearestSlot(grid, start)
		cells[idx] = append(cells[idx], ev.Text())

		span := int(end.Sub(start) / slot)
		for k := 1; k < span; k++ {
			if idx+k >= len(grid) {
				break
			}
			cells[idx+k] = append(cells[idx+k], ContinuationMarker)
		}
	}

	return cells
}

// nearestSlot returns the index of the grid entry closest in absolute
// time to t. The scan keeps the first minimum, so earlier slots win ties.
// Grids are tens of entries, a linear scan is fine.
func nearestSlot(grid []time.Time, t time.Time) int {
	best := 0
	bestDiff := absDuration(grid[0].Sub(t))
	for i := 1; i < len(grid); i++ {
		d := absDuration(grid[i].Sub(t))
		if d < bestDiff {
			best = i
			bestDiff = d
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
