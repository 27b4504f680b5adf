// Package web provides the preview HTTP server used in watch mode: a
// health check, the assembled schedule as JSON, and the generated
// documents as static files.
package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"wochenplan/internal/config"
	"wochenplan/internal/log"
	"wochenplan/internal/schedule"
)

// Server answers preview requests against the configured event source.
type Server struct {
	cfg *config.Config
	src schedule.Source
	loc *time.Location
	mux *http.ServeMux
}

// NewServer constructs a preview server.
func NewServer(cfg *config.Config, src schedule.Source, loc *time.Location) *Server {
	s := &Server{
		cfg: cfg,
		src: src,
		loc: loc,
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	s.mux.Handle("GET /files/", http.StripPrefix("/files/",
		http.FileServer(http.Dir(cfg.OutputDir))))
	return s
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// scheduleResponse is the JSON shape of one date-group's content table.
type scheduleResponse struct {
	Year  int      `json:"year"`
	Week  int      `json:"week"`
	Dates []string `json:"dates"`
	Rows  []rowDTO `json:"rows"`
}

type rowDTO [schedule.GroupDays]cellDTO

type cellDTO struct {
	Time  string   `json:"time,omitempty"`
	Lines []string `json:"lines,omitempty"`
}

// handleSchedule assembles and returns the content table of one ISO
// week: GET /api/schedule?year=2026&week=2. Missing parameters default
// to the current week.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(s.loc)
	defYear, defWeek := now.ISOWeek()

	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), defYear)
	week := parseIntDefault(q.Get("week"), defWeek)

	group := schedule.NewGroup(schedule.MondayOfISOWeek(year, week, s.loc))
	cache, err := schedule.BuildCache(r.Context(), s.src, group.Days[:])
	if err != nil {
		log.Error("preview: event fetch failed", err, "year", year, "week", week)
		writeError(w, http.StatusBadGateway, "failed to fetch events")
		return
	}
	tbl := schedule.BuildTable(group, cache, s.cfg.SlotDuration())

	resp := scheduleResponse{Year: year, Week: week}
	for _, d := range group.Days {
		resp.Dates = append(resp.Dates, d.Format("2006-01-02"))
	}
	for _, row := range tbl.Rows {
		var dto rowDTO
		for i, cell := range row {
			if cell.HasSlot {
				dto[i].Time = cell.Slot.Format("15:04")
			}
			dto[i].Lines = cell.Lines
		}
		resp.Rows = append(resp.Rows, dto)
	}

	writeJSON(w, http.StatusOK, resp)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("preview: write JSON failed", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
