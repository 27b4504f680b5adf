// Package icsfeed implements the event source for plain ICS subscription
// feeds (http(s) URLs ending in .ics, or webcal://). The whole feed is
// fetched once per run, parsed, and recurrences are expanded per
// requested day, so the scheduling core only ever sees concrete events.
package icsfeed

import (
	"context"
	"strings"
	"sync"
	"time"

	"wochenplan/internal/model"
)

// Feed pulls per-day events from a single ICS subscription URL. It is
// safe for concurrent use; the preview server fetches through a shared
// instance.
type Feed struct {
	url     string
	loc     *time.Location
	fetcher *fetcher

	// Parsed feed body, loaded on first FetchEvents call of a run.
	mu     sync.Mutex
	parsed []feedEvent
	loaded bool
}

// IsFeedURL reports whether a configured calendar URL points at an ICS
// feed rather than a CalDAV server.
func IsFeedURL(url string) bool {
	return strings.HasPrefix(url, "webcal://") ||
		strings.HasSuffix(strings.ToLower(url), ".ics")
}

// New builds a feed source. webcal:// URLs are rewritten to https://.
func New(url, cacheDir string, loc *time.Location) *Feed {
	if rest, ok := strings.CutPrefix(url, "webcal://"); ok {
		url = "https://" + rest
	}
	if loc == nil {
		loc = time.Local
	}
	return &Feed{
		url:     url,
		loc:     loc,
		fetcher: newFetcher(cacheDir),
	}
}

// FetchEvents returns the feed's events starting on the given day,
// normalized to the display timezone, with recurrences expanded.
func (f *Feed) FetchEvents(ctx context.Context, day time.Time) ([]model.Event, error) {
	parsed, err := f.load(ctx)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, f.loc)
	return expandDay(parsed, dayStart, dayStart.AddDate(0, 0, 1), f.loc), nil
}

// load fetches and parses the feed on first use. The parsed slice is
// never mutated afterwards, so callers may read it without the lock.
func (f *Feed) load(ctx context.Context) ([]feedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loaded {
		return f.parsed, nil
	}
	body, err := f.fetcher.fetch(ctx, f.url)
	if err != nil {
		return nil, err
	}
	parsed, err := parseFeed(body)
	if err != nil {
		return nil, err
	}
	f.parsed = parsed
	f.loaded = true
	return f.parsed, nil
}
