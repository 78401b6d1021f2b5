package http

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"aurum/internal/ledger"
	"aurum/internal/metrics"
)

// assetRow is one ledger record in API responses. Position is what
// /assets/delete expects.
type assetRow struct {
	Position int             `json:"position"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Value    decimal.Decimal `json:"value"`
	Change   decimal.Decimal `json:"change"`
}

func (s *Server) handleAPIOverview(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	_, l, ok := s.currentLedger(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, metrics.BuildOverview(l.List(), s.newSource()))
}

func (s *Server) handleAPIPerformance(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	_, l, ok := s.currentLedger(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, metrics.BuildPerformance(l.List()))
}

func (s *Server) handleAPIAssets(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	_, l, ok := s.currentLedger(w, r)
	if !ok {
		return
	}

	entries := ledger.Search(l.List(), SearchQuery(r.URL.Query()))
	rows := make([]assetRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, assetRow{
			Position: e.Position,
			Name:     e.Asset.Name,
			Category: e.Asset.Category,
			Value:    e.Asset.Value,
			Change:   e.Asset.Change,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleMetrics exposes process counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	added, removed := s.assets.Stats()
	tm := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	sec := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	for _, m := range []struct {
		name, kind, help string
		value            int64
	}{
		{"aurum_sessions_active", "gauge", "Live sessions.", int64(s.sessions.Count())},
		{"aurum_assets_added_total", "counter", "Assets added across sessions.", added},
		{"aurum_assets_removed_total", "counter", "Assets removed across sessions.", removed},
		{"aurum_http_requests_total", "counter", "HTTP requests served.", tm.TotalRequests},
		{"aurum_http_server_errors_total", "counter", "HTTP responses with status 5xx.", tm.ServerErrors},
		{"aurum_http_response_time_avg_microseconds", "gauge", "Mean response time.", tm.AverageResponseTime},
		{"aurum_rate_limited_total", "counter", "Mutating requests rejected by the rate limiter.", rl.Rejected},
		{"aurum_suspicious_requests_total", "counter", "Requests flagged as probes.", sec.SuspiciousRequests},
	} {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}
