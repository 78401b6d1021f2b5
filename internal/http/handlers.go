package http

import (
	"errors"
	"fmt"
	"net/http"

	"aurum/internal/core"
	"aurum/internal/ledger"
	"aurum/internal/log"
	"aurum/internal/metrics"
	"aurum/internal/session"
)

var errNoSession = errors.New("no session in request context")

// pageData is the model of every full page and fragment.
type pageData struct {
	Title        string
	Active       string
	EmptyMessage string

	Overview    *metrics.Overview
	Performance *metrics.Performance
	Manage      *manageView
}

type manageView struct {
	Query      string
	Entries    []ledger.Entry
	Categories []string
	Total      int
}

func newPage(title, active string) pageData {
	return pageData{Title: title, Active: active, EmptyMessage: emptyLedgerMessage}
}

// currentLedger returns the session and ledger attached by session.Middleware.
func (s *Server) currentLedger(w http.ResponseWriter, r *http.Request) (string, *ledger.Ledger, bool) {
	id, l, ok := session.FromContext(r.Context())
	if !ok {
		s.writeError(w, r, errNoSession, log.OpRead)
		return "", nil, false
	}
	return id, l, true
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if errResp := RequireMethod(r, http.MethodGet, http.MethodHead); errResp != nil {
		errResp.Write(w)
		return
	}
	_, l, ok := s.currentLedger(w, r)
	if !ok {
		return
	}

	ov := metrics.BuildOverview(l.List(), s.newSource())
	data := newPage("Overview", "overview")
	data.Overview = &ov
	s.render(w, r, "overview", data)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet, http.MethodHead); errResp != nil {
		errResp.Write(w)
		return
	}
	_, l, ok := s.currentLedger(w, r)
	if !ok {
		return
	}

	perf := metrics.BuildPerformance(l.List())
	data := newPage("Performance", "performance")
	data.Performance = &perf
	s.render(w, r, "performance", data)
}

func (s *Server) manageData(r *http.Request, l *ledger.Ledger) pageData {
	snapshot := l.List()
	q := SearchQuery(r.URL.Query())
	data := newPage("Manage Assets", "manage")
	data.Manage = &manageView{
		Query:      q,
		Entries:    ledger.Search(snapshot, q),
		Categories: core.SuggestCategories(snapshot),
		Total:      len(snapshot),
	}
	return data
}

func (s *Server) handleManage(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet, http.MethodHead); errResp != nil {
		errResp.Write(w)
		return
	}
	_, l, ok := s.currentLedger(w, r)
	if !ok {
		return
	}
	s.render(w, r, "manage", s.manageData(r, l))
}

// handleAssetList renders the manage list fragment. It reloads on the
// assets:changed trigger and on search input.
func (s *Server) handleAssetList(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	_, l, ok := s.currentLedger(w, r)
	if !ok {
		return
	}
	s.render(w, r, "asset_list", s.manageData(r, l))
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	id, l, ok := s.currentLedger(w, r)
	if !ok {
		return
	}

	parser, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	asset, err := ReadAssetForm(parser).Asset()
	if err != nil {
		s.writeError(w, r, err, log.OpValidate)
		return
	}
	if err := s.assets.AddAsset(r.Context(), id, l, asset); err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	NewHTMXResponse().
		TriggerAssetsChanged(l.Len()).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Added %s (%s) worth %s.", asset.Name, asset.Category, core.FormatMoney(asset.Value))).
		Write(w)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireDeleteOrPOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	id, l, ok := s.currentLedger(w, r)
	if !ok {
		return
	}

	parser, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	params, err := ReadRemoveParams(parser, r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.OpValidate)
		return
	}

	removed, err := s.assets.RemoveAsset(r.Context(), id, l, params.Position, params.Name)
	if err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}

	NewHTMXResponse().
		TriggerAssetsChanged(l.Len()).
		TriggerSuccessNotification(fmt.Sprintf("Removed %s.", removed.Name)).
		Write(w)
}

// parseBody reads a mutating request body, answering 400 or 413 itself when
// the body is unusable.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.writeError(w, r, err, log.OpParse)
		return nil, false
	}
	return parser, true
}
