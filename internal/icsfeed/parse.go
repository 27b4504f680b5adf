package icsfeed

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"wochenplan/internal/log"
)

// feedEvent is one VEVENT of the feed before recurrence expansion.
type feedEvent struct {
	Summary     string
	Description string

	Start time.Time
	End   time.Time

	RawRRule string
	ExDates  []time.Time
}

// parseFeed parses an ICS payload into feedEvents. Broken start/end
// values stay zero and get coerced later; only an unparseable payload
// fails.
func parseFeed(body []byte) ([]feedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]feedEvent, 0)
	for _, ve := range cal.Events() {
		events = append(events, parseVEvent(ve))
	}

	log.Debug("feed parsed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) feedEvent {
	var out feedEvent

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}

	// The library resolves VTIMEZONE/TZID into the returned time.Time.
	// Unparseable values stay zero and are later coerced to midnight.
	start, err := ve.GetStartAt()
	if err == nil {
		out.Start = start
	}
	end, err := ve.GetEndAt()
	if err == nil {
		out.End = end
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out
}

// parseICSTime parses the basic ICS DATE / DATE-TIME forms used in
// EXDATE values.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
