package schedule

import "time"

// RowCell is one (time label, text lines) pair of a table row. HasSlot is
// false for padding cells past the end of a shorter day's grid; those
// render blank.
type RowCell struct {
	Slot    time.Time
	HasSlot bool
	Lines   []string
}

// Row holds one cell per day of the group, in role order.
type Row [GroupDays]RowCell

// Table is the assembled content of one printable page: the group's dates
// for the header row plus one row per slot index.
//
// The three day grids can differ in length (the early-start day has its
// own boundaries). Rows are padded to the longest grid rather than
// truncated to the shortest, so no slot is dropped from a longer day.
type Table struct {
	Group Group
	Rows  []Row
}

// BuildTable runs grid generation and event placement for each day of the
// group and assembles the rows. slot <= 0 falls back to
// DefaultSlotDuration.
func BuildTable(g Group, cache *Cache, slot time.Duration) Table {
	var grids [GroupDays][]time.Time
	var cells [GroupDays][]Cell

	rows := 0
	for i, day := range g.Days {
		grids[i] = Grid(day, RoleFor(i), slot)
		cells[i] = Place(day, grids[i], cache.Events(day), slot)
		if len(grids[i]) > rows {
			rows = len(grids[i])
		}
	}

	t := Table{Group: g, Rows: make([]Row, rows)}
	for r := 0; r < rows; r++ {
		for i := 0; i < GroupDays; i++ {
			if r >= len(grids[i]) {
				continue
			}
			t.Rows[r][i] = RowCell{
				Slot:    grids[i][r],
				HasSlot: true,
				Lines:   cells[i][r],
			}
		}
	}
	return t
}
