package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"masarify/internal/core"
	"masarify/internal/log"
	"masarify/internal/services"
)

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Started() {
		http.Error(w, "state not loaded", http.StatusServiceUnavailable)
		return
	}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	tm := s.tracer.GetMetrics()
	dm := s.detector.GetMetrics()
	body := map[string]any{
		"uptime_seconds":         int64(time.Since(s.started).Seconds()),
		"state_version":          s.svc.Version(),
		"requests_total":         tm.TotalRequests,
		"requests_failed":        tm.FailedRequests,
		"avg_response_micros":    tm.AverageResponseTime,
		"rate_limit_hits":        s.limiter.Hits(),
		"rate_limit_clients":     s.limiter.ActiveClients(),
		"suspicious_requests":    dm.SuspiciousRequests,
		"invalid_ip_attempts":    dm.InvalidIPAttempts,
		"ledger_cache_available": s.cache != nil,
	}
	if s.cache != nil {
		st := s.cache.Stats()
		body["ledger_cache_size"] = st.Size
		body["ledger_cache_hits"] = st.Hits
		body["ledger_cache_misses"] = st.Misses
	}
	NewResponse().JSON(body).Write(w)
}

type sessionResponse struct {
	Locked   bool          `json:"locked"`
	HasPin   bool          `json:"hasPin"`
	Language core.Language `json:"language"`
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	st := s.svc.State()
	NewResponse().JSON(sessionResponse{
		Locked:   s.svc.Locked(),
		HasPin:   st.HasPin(),
		Language: st.Language,
	}).Write(w)
}

func (s *Server) lang() core.Language {
	return s.svc.State().Language
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pin string `json:"pin"`
	}
	if err := DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Unlock(r.Context(), req.Pin); err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Lock(r.Context()); err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrencies(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(core.SupportedCurrencies).Write(w)
}

// stateView is the state as served to clients: the PIN is never sent back.
type stateView struct {
	core.AppState
	Pin    *string `json:"pin,omitempty"`
	HasPin bool    `json:"hasPin"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	st := s.svc.State()
	NewResponse().JSON(stateView{AppState: st, HasPin: st.HasPin()}).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ref, _, err := ParseMonth(r.URL.Query(), "month", s.loc)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewResponse().JSON(s.svc.Dashboard(ref)).Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	month, ok, err := ParseMonth(r.URL.Query(), "month", s.loc)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var ref *time.Time
	if ok {
		ref = &month
	}
	NewResponse().JSON(s.svc.Breakdown(ref)).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := ParseLimit(q, "limit", 0)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	txType := core.TransactionType(strings.ToUpper(strings.TrimSpace(q.Get("type"))))
	if txType != "" && !txType.Valid() {
		BadRequestError("invalid type: expected INCOME or EXPENSE").Write(w)
		return
	}
	NewResponse().JSON(s.svc.SearchTransactions(services.TransactionQuery{
		Text:       sanitizeInput(q.Get("q")),
		Type:       txType,
		CategoryID: strings.TrimSpace(q.Get("category")),
		Limit:      limit,
	})).Write(w)
}

func (s *Server) decodeTransaction(w http.ResponseWriter, r *http.Request) (services.TransactionInput, bool) {
	var in services.TransactionInput
	if err := DecodeJSON(w, r, maxImportBody, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return in, false
	}
	in.Note = sanitizeInput(in.Note)
	return in, true
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}
	res, err := s.svc.AddTransaction(r.Context(), in)
	if err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(res).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}
	res, err := s.svc.UpdateTransaction(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	NewResponse().JSON(res).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.svc.State().Categories
	if t := core.TransactionType(strings.ToUpper(r.URL.Query().Get("type"))); t.Valid() {
		filtered := make([]core.Category, 0, len(cats))
		for _, c := range cats {
			if c.Type == t {
				filtered = append(filtered, c)
			}
		}
		cats = filtered
	}
	NewResponse().JSON(cats).Write(w)
}

func (s *Server) decodeCategory(w http.ResponseWriter, r *http.Request) (services.CategoryInput, bool) {
	var in services.CategoryInput
	if err := DecodeJSON(w, r, maxJSONBody, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return in, false
	}
	in.NameEn = sanitizeInput(in.NameEn)
	in.NameAr = sanitizeInput(in.NameAr)
	return in, true
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeCategory(w, r)
	if !ok {
		return
	}
	c, err := s.svc.AddCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(c).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeCategory(w, r)
	if !ok {
		return
	}
	c, err := s.svc.UpdateCategory(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	NewResponse().JSON(c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(s.svc.State().Accounts).Write(w)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Budget core.BudgetConfig `json:"budget"`
		Pin    *string           `json:"pin"`
	}
	req.Budget = s.svc.State().Budget
	if err := DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.SaveSettings(r.Context(), req.Budget, req.Pin); err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	NewResponse().JSON(s.svc.State().Budget).Write(w)
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language core.Language `json:"language"`
	}
	if err := DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.SetLanguage(r.Context(), req.Language); err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	cur, err := s.svc.SetCurrency(r.Context(), req.Code)
	if err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	NewResponse().JSON(cur).Write(w)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.ExportSnapshot(r.Context())
	if err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	NewResponse().Attachment("masarify_backup.json", "application/json; charset=utf-8", doc).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.ExportCSV(r.Context())
	if err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	name := "masarify_transactions_" + time.Now().In(s.loc).Format("2006-01-02") + ".csv"
	NewResponse().Attachment(name, "text/csv; charset=utf-8", doc).Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := ReadBody(w, r, maxImportBody)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	st, err := s.svc.ImportSnapshot(r.Context(), raw)
	if err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	NewResponse().JSON(stateView{AppState: st, HasPin: st.HasPin()}).Write(w)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query(), "limit", 10)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	history, err := s.svc.History(r.Context(), limit)
	if err != nil {
		writeError(w, r, err, s.lang())
		return
	}
	if history == nil {
		NewResponse().JSON([]any{}).Write(w)
		return
	}
	NewResponse().JSON(history).Write(w)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	q := sanitizeInput(req.Question)
	if q == "" {
		UnprocessableEntityError("question must not be empty").Write(w)
		return
	}
	NewResponse().JSON(s.svc.Ask(r.Context(), q)).Write(w)
}

func (s *Server) handleMessages(w http.ResponseWriter, _ *http.Request) {
	msgs := s.svc.Messages()
	if msgs == nil {
		NewResponse().JSON([]any{}).Write(w)
		return
	}
	NewResponse().JSON(msgs).Write(w)
}
