package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wochenplan/internal/config"
	"wochenplan/internal/model"
)

type stubSource struct {
	events map[string][]model.Event
	err    error
}

func (s *stubSource) FetchEvents(_ context.Context, day time.Time) ([]model.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.events[day.Format("2006-01-02")], nil
}

func newTestServer(src *stubSource) *Server {
	cfg := config.DefaultConfig()
	cfg.OutputDir = "."
	return NewServer(cfg, src, time.UTC)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubSource{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestScheduleEndpoint(t *testing.T) {
	src := &stubSource{events: map[string][]model.Event{
		"2026-01-05": {
			{
				Summary: "Meeting",
				Start:   time.Date(2026, time.January, 5, 10, 30, 0, 0, time.UTC),
				End:     time.Date(2026, time.January, 5, 11, 30, 0, 0, time.UTC),
			},
		},
	}}
	srv := newTestServer(src)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule?year=2026&week=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp scheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Year != 2026 || resp.Week != 2 {
		t.Errorf("year/week = %d/%d", resp.Year, resp.Week)
	}
	if len(resp.Dates) != 3 || resp.Dates[0] != "2026-01-05" || resp.Dates[2] != "2026-01-07" {
		t.Errorf("dates = %v", resp.Dates)
	}
	if len(resp.Rows) == 0 {
		t.Fatal("no rows")
	}
	first := resp.Rows[0][0]
	if first.Time != "10:30" || len(first.Lines) != 1 || first.Lines[0] != "Meeting" {
		t.Errorf("first cell = %+v", first)
	}
}

func TestScheduleEndpointSourceError(t *testing.T) {
	srv := newTestServer(&stubSource{err: errors.New("boom")})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule?year=2026&week=2", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
