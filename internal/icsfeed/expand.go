package icsfeed

import (
	"time"

	"github.com/teambition/rrule-go"

	"wochenplan/internal/log"
	"wochenplan/internal/model"
)

// expandDay returns the concrete events of [dayStart, dayEnd): plain
// events starting on that day, plus the day's occurrences of recurring
// events (RRULE with EXDATE exceptions), all in loc. Feed order is kept.
func expandDay(events []feedEvent, dayStart, dayEnd time.Time, loc *time.Location) []model.Event {
	out := make([]model.Event, 0)

	for _, ev := range events {
		start := ev.Start
		end := ev.End
		if start.IsZero() {
			start = dayStart
		} else {
			start = start.In(loc)
		}
		if end.IsZero() {
			end = dayStart
		} else {
			end = end.In(loc)
		}

		if ev.RawRRule == "" {
			if start.Before(dayStart) || !start.Before(dayEnd) {
				continue
			}
			out = append(out, model.Event{
				Summary:     ev.Summary,
				Description: ev.Description,
				Start:       start,
				End:         end,
			})
			continue
		}

		out = append(out, expandRecurring(ev, start, end, dayStart, dayEnd, loc)...)
	}

	return out
}

func expandRecurring(ev feedEvent, start, end, dayStart, dayEnd time.Time, loc *time.Location) []model.Event {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		log.Error("feed: bad RRULE, skipping event", err, "rrule", ev.RawRRule, "summary", ev.Summary)
		return nil
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(start.Location()))
	}

	duration := end.Sub(start)
	// Between is inclusive on both bounds; dayEnd belongs to the next day.
	times := set.Between(dayStart, dayEnd.Add(-time.Second), true)

	out := make([]model.Event, 0, len(times))
	for _, occStart := range times {
		occStart = occStart.In(loc)
		out = append(out, model.Event{
			Summary:     ev.Summary,
			Description: ev.Description,
			Start:       occStart,
			End:         occStart.Add(duration),
		})
	}
	return out
}
