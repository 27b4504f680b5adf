package icsfeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const feedFixture = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:single\r\n" +
	"SUMMARY:Friseur\r\n" +
	"DTSTART:20260105T143000Z\r\n" +
	"DTEND:20260105T151000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:weekly\r\n" +
	"SUMMARY:Jour fixe\r\n" +
	"DESCRIPTION:Raum 12\r\n" +
	"DTSTART:20251222T100000Z\r\n" +
	"DTEND:20251222T110000Z\r\n" +
	"RRULE:FREQ=WEEKLY;BYDAY=MO\r\n" +
	"EXDATE:20260112T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestIsFeedURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"webcal://example.net/cal", true},
		{"https://example.net/private.ics", true},
		{"https://example.net/private.ICS", true},
		{"https://dav.example.net/", false},
		{"https://dav.example.net/calendars/work/", false},
	}
	for _, tt := range tests {
		if got := IsFeedURL(tt.url); got != tt.want {
			t.Errorf("IsFeedURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestParseFeed(t *testing.T) {
	events, err := parseFeed([]byte(feedFixture))
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Summary != "Friseur" || events[0].RawRRule != "" {
		t.Errorf("event 0 = %+v", events[0])
	}
	if events[1].RawRRule != "FREQ=WEEKLY;BYDAY=MO" {
		t.Errorf("event 1 rrule = %q", events[1].RawRRule)
	}
	if len(events[1].ExDates) != 1 {
		t.Errorf("event 1 exdates = %v", events[1].ExDates)
	}
}

func TestParseFeedEmpty(t *testing.T) {
	if _, err := parseFeed(nil); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestExpandDaySingleAndRecurring(t *testing.T) {
	parsed, err := parseFeed([]byte(feedFixture))
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}

	dayStart := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	events := expandDay(parsed, dayStart, dayStart.AddDate(0, 0, 1), time.UTC)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Summary != "Friseur" {
		t.Errorf("event 0 = %+v", events[0])
	}
	if events[1].Summary != "Jour fixe" || events[1].Description != "Raum 12" {
		t.Errorf("event 1 = %+v", events[1])
	}
	wantStart := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	if !events[1].Start.Equal(wantStart) {
		t.Errorf("occurrence start = %v, want %v", events[1].Start, wantStart)
	}
	if d := events[1].End.Sub(events[1].Start); d != time.Hour {
		t.Errorf("occurrence duration = %v, want 1h", d)
	}
}

func TestExpandDayHonorsExdate(t *testing.T) {
	parsed, err := parseFeed([]byte(feedFixture))
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}

	// January 12 is excluded via EXDATE and the single event belongs to
	// the 5th, so the day is empty.
	dayStart := time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)
	events := expandDay(parsed, dayStart, dayStart.AddDate(0, 0, 1), time.UTC)

	if len(events) != 0 {
		t.Fatalf("got %+v, want no events on the excluded day", events)
	}
}

func TestExpandDayEmptyDay(t *testing.T) {
	parsed, err := parseFeed([]byte(feedFixture))
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}

	dayStart := time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC)
	events := expandDay(parsed, dayStart, dayStart.AddDate(0, 0, 1), time.UTC)
	if len(events) != 0 {
		t.Fatalf("got %+v, want empty slice", events)
	}
}

func TestFeedFetchEvents(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("ETag", `"v1"`)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write([]byte(feedFixture))
	}))
	defer srv.Close()

	feed := New(srv.URL+"/cal.ics", t.TempDir(), time.UTC)

	day := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	events, err := feed.FetchEvents(context.Background(), day)
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	// Subsequent days of the same run reuse the parsed feed.
	if _, err := feed.FetchEvents(context.Background(), day.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("second FetchEvents: %v", err)
	}
	if hits != 1 {
		t.Errorf("feed fetched %d times in one run, want 1", hits)
	}

	// A fresh run revalidates and gets a 304 served from the disk cache.
	feed2 := New(srv.URL+"/cal.ics", feed.fetcher.cacheDir, time.UTC)
	events2, err := feed2.FetchEvents(context.Background(), day)
	if err != nil {
		t.Fatalf("cached FetchEvents: %v", err)
	}
	if len(events2) != 2 {
		t.Fatalf("cached run: got %d events, want 2", len(events2))
	}
}

func TestFeedFetchEventsConcurrent(t *testing.T) {
	// The preview server calls FetchEvents from concurrent request
	// handlers against one shared Feed; the lazy load must hold for that.
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(feedFixture))
	}))
	defer srv.Close()

	feed := New(srv.URL+"/cal.ics", t.TempDir(), time.UTC)
	day := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			events, err := feed.FetchEvents(context.Background(), day)
			if err != nil {
				errs <- err
				return
			}
			if len(events) != 2 {
				errs <- fmt.Errorf("got %d events, want 2", len(events))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("feed fetched %d times, want 1", got)
	}
}

func TestNewRewritesWebcal(t *testing.T) {
	feed := New("webcal://example.net/cal.ics", t.TempDir(), time.UTC)
	if !strings.HasPrefix(feed.url, "https://") {
		t.Errorf("url = %q, want https rewrite", feed.url)
	}
}
