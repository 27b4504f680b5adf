// Package caldav implements the CalDAV event source: calendar discovery,
// per-day calendar-query REPORTs, and normalization of the returned
// VEVENTs into model.Event values in the display timezone.
package caldav

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	webcal "github.com/emersion/go-webdav/caldav"
	"github.com/teambition/rrule-go"

	"wochenplan/internal/log"
	"wochenplan/internal/model"
)

// Client pulls events for single days from one calendar on a CalDAV
// server. The calendar is discovered by display name on first use. A
// Client is safe for concurrent use; the preview server fetches through
// a shared instance.
type Client struct {
	dav          *webcal.Client
	calendarName string
	loc          *time.Location

	mu           sync.Mutex
	calendarPath string
}

// NewClient builds a CalDAV client for the given server base URL with
// HTTP basic auth. calendarName selects the calendar by display name.
func NewClient(serverURL, username, password, calendarName string, loc *time.Location) (*Client, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("caldav: server URL is empty")
	}
	if loc == nil {
		loc = time.Local
	}

	httpClient := webdav.HTTPClientWithBasicAuth(nil, username, password)
	dav, err := webcal.NewClient(httpClient, serverURL)
	if err != nil {
		return nil, fmt.Errorf("caldav: create client: %w", err)
	}

	return &Client{
		dav:          dav,
		calendarName: calendarName,
		loc:          loc,
	}, nil
}

// FetchEvents returns the calendar's events for one day, normalized to
// the display timezone. Recurring events are expanded to the occurrences
// falling on that day. A day without events returns an empty slice.
func (c *Client) FetchEvents(ctx context.Context, day time.Time) ([]model.Event, error) {
	path, err := c.findCalendar(ctx)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, c.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := &webcal.CalendarQuery{
		CompRequest: webcal.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []webcal.CalendarCompRequest{{
				Name:     "VEVENT",
				AllProps: true,
			}},
		},
		CompFilter: webcal.CompFilter{
			Name: "VCALENDAR",
			Comps: []webcal.CompFilter{{
				Name:  "VEVENT",
				Start: dayStart.UTC(),
				End:   dayEnd.UTC(),
			}},
		},
	}

	objects, err := c.dav.QueryCalendar(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("caldav: query %s: %w", dayStart.Format("2006-01-02"), err)
	}

	events := make([]model.Event, 0)
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		events = append(events, eventsFromCalendar(obj.Data, dayStart, dayEnd, c.loc)...)
	}

	log.Debug("caldav fetch", "day", dayStart.Format("2006-01-02"), "objects", len(objects), "events", len(events))
	return events, nil
}

// findCalendar resolves the calendar path via current-user-principal and
// calendar-home-set discovery, matching the configured display name. The
// result is kept for subsequent fetches.
func (c *Client) findCalendar(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.calendarPath != "" {
		return c.calendarPath, nil
	}

	principal, err := c.dav.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("caldav: find principal: %w", err)
	}
	homeSet, err := c.dav.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("caldav: find calendar home set: %w", err)
	}
	calendars, err := c.dav.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("caldav: list calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == c.calendarName {
			c.calendarPath = cal.Path
			log.Info("caldav calendar resolved", "name", cal.Name, "path", cal.Path)
			return c.calendarPath, nil
		}
	}
	return "", fmt.Errorf("caldav: calendar %q not found (%d calendars on server)", c.calendarName, len(calendars))
}

// eventsFromCalendar normalizes the VEVENTs of one calendar object into
// events starting within [dayStart, dayEnd). Unparseable start/end values
// are coerced to midnight rather than failing the run.
func eventsFromCalendar(cal *ical.Calendar, dayStart, dayEnd time.Time, loc *time.Location) []model.Event {
	var out []model.Event

	for _, ve := range cal.Events() {
		summary := propText(ve.Props.Get(ical.PropSummary))
		description := propText(ve.Props.Get(ical.PropDescription))

		start, err := ve.DateTimeStart(loc)
		if err != nil || start.IsZero() {
			start = dayStart
		} else {
			start = start.In(loc)
		}
		end, err := ve.DateTimeEnd(loc)
		if err != nil || end.IsZero() {
			end = dayStart
		} else {
			end = end.In(loc)
		}

		if rr := ve.Props.Get(ical.PropRecurrenceRule); rr != nil {
			exDates := exceptionDates(ve, loc)
			out = append(out, expandOnDay(rr.Value, summary, description, start, end, exDates, dayStart, dayEnd)...)
			continue
		}

		if start.Before(dayStart) || !start.Before(dayEnd) {
			continue
		}
		out = append(out, model.Event{
			Summary:     summary,
			Description: description,
			Start:       start,
			End:         end,
		})
	}

	return out
}

// expandOnDay expands a recurring master event to its occurrences within
// [dayStart, dayEnd), preserving the master's duration. Occurrences
// cancelled via EXDATE are skipped. A bad RRULE drops the event rather
// than aborting the run.
func expandOnDay(rawRule, summary, description string, start, end time.Time, exDates []time.Time, dayStart, dayEnd time.Time) []model.Event {
	r, err := rrule.StrToRRule(rawRule)
	if err != nil {
		log.Error("caldav: bad RRULE, skipping event", err, "rrule", rawRule, "summary", summary)
		return nil
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates {
		set.ExDate(ex.In(start.Location()))
	}

	duration := end.Sub(start)
	// Between is inclusive on both bounds; dayEnd itself belongs to the
	// next day.
	times := set.Between(dayStart, dayEnd.Add(-time.Second), true)

	out := make([]model.Event, 0, len(times))
	for _, occStart := range times {
		out = append(out, model.Event{
			Summary:     summary,
			Description: description,
			Start:       occStart,
			End:         occStart.Add(duration),
		})
	}
	return out
}

// exceptionDates collects a recurring master's EXDATE values. Floating
// and date-only forms are anchored in the display timezone; entries that
// do not parse are dropped.
func exceptionDates(ve ical.Event, loc *time.Location) []time.Time {
	var out []time.Time
	for _, p := range ve.Props.Values(ical.PropExceptionDates) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseExDate(part, loc); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

func parseExDate(v string, loc *time.Location) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

func propText(p *ical.Prop) string {
	if p == nil {
		return ""
	}
	text, err := p.Text()
	if err != nil {
		return p.Value
	}
	return text
}
