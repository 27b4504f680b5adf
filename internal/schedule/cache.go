package schedule

import (
	"context"
	"fmt"
	"time"

	"wochenplan/internal/log"
	"wochenplan/internal/model"
)

// Source delivers the normalized events of a single day. A day without
// events yields an empty slice and no error. Event order is the source's
// retrieval order; the cache and the placement engine preserve it.
type Source interface {
	FetchEvents(ctx context.Context, day time.Time) ([]model.Event, error)
}

const cacheDayKey = "2006-01-02"

// Cache holds the events of all days of a run, fetched once up front and
// read-only afterward.
type Cache struct {
	events map[string][]model.Event
}

// BuildCache fetches events for every given day. Any fetch error aborts
// the build; there is no retry and no partial result.
func BuildCache(ctx context.Context, src Source, days []time.Time) (*Cache, error) {
	c := &Cache{events: make(map[string][]model.Event, len(days))}
	for _, day := range days {
		events, err := src.FetchEvents(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("fetch events for %s: %w", day.Format(cacheDayKey), err)
		}
		log.Debug("fetched events", "day", day.Format(cacheDayKey), "count", len(events))
		c.events[day.Format(cacheDayKey)] = events
	}
	return c, nil
}

// Events returns the cached events of a day, in retrieval order. Unknown
// days return nil.
func (c *Cache) Events(day time.Time) []model.Event {
	return c.events[day.Format(cacheDayKey)]
}
