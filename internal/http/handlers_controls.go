package http

import (
	"net/http"

	"fincontrol/internal/core"
)

type createControlRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Type     string `json:"type"`
}

func (s *Server) handleListControls(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	controls := sess.Controls()
	out := make([]controlJSON, 0, len(controls))
	for _, c := range controls {
		out = append(out, toControlJSON(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"controls": out,
		"selected": sess.Selection(),
	})
}

func (s *Server) handleCreateControl(w http.ResponseWriter, r *http.Request) {
	var req createControlRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := s.session(r).CreateControl(r.Context(), req.Name,
		core.Currency(req.Currency), core.ControlType(req.Type))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toControlJSON(c))
}

func (s *Server) handleDeleteControl(w http.ResponseWriter, r *http.Request) {
	if err := s.session(r).DeleteControl(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectControl(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if err := sess.SelectControl(r.PathValue("id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": sess.Selection()})
}

// handleSummary returns the per-type totals for one calendar month.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	control, err := s.session(r).Control(r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	month, year := parseMonthYear(r)
	filtered := core.FilterTransactions(&control, month, year, core.TypeAll)
	summary := core.Summarize(filtered)

	writeJSON(w, http.StatusOK, map[string]any{
		"month":   int(month),
		"year":    year,
		"summary": toSummaryJSON(summary, control.Currency),
	})
}

// handleCategoryBreakdown returns per-category expense totals for one month.
func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	control, err := s.session(r).Control(r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	month, year := parseMonthYear(r)
	filtered := core.FilterTransactions(&control, month, year, core.Expense)
	breakdown := core.CategoryBreakdown(filtered)

	out := make([]categoryJSON, 0, len(breakdown))
	for _, ca := range breakdown {
		out = append(out, categoryJSON{
			Category:  string(ca.Category),
			Amount:    ca.Amount.String(),
			Formatted: core.FormatAmount(ca.Amount, control.Currency),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":      int(month),
		"year":       year,
		"categories": out,
	})
}

// handleAdvice runs the advisor over the control's full history in the
// configured language.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "advice is not configured"})
		return
	}
	control, err := s.session(r).Control(r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	lang, err := s.svc.Language(r.Context())
	if err != nil || lang == "" {
		lang = s.defaultLanguage
	}

	text := s.advisor.Advise(r.Context(), control.Transactions, lang)
	writeJSON(w, http.StatusOK, map[string]string{"advice": text, "language": lang})
}
