package http

import (
	"net/http"

	"fincontrol/internal/app"
	"fincontrol/internal/core"
)

type transactionRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

// handleListTransactions returns the month's transactions newest-first,
// optionally narrowed by type.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	control, err := s.session(r).Control(r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	month, year := parseMonthYear(r)
	typeFilter := core.TransactionType(r.URL.Query().Get("type"))
	if typeFilter == "" {
		typeFilter = core.TypeAll
	}
	if typeFilter != core.TypeAll && !typeFilter.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid type filter"})
		return
	}

	filtered := core.FilterTransactions(&control, month, year, typeFilter)
	out := make([]transactionJSON, 0, len(filtered))
	for _, t := range filtered {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":        int(month),
		"year":         year,
		"transactions": out,
	})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid date: " + req.Date})
		return
	}

	t, err := s.session(r).AddTransaction(r.Context(), r.PathValue("id"), app.TransactionInput{
		Description: req.Description,
		Amount:      req.Amount,
		Type:        core.TransactionType(req.Type),
		Category:    core.Category(req.Category),
		Date:        date,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.session(r).DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reminderRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
}

func (s *Server) handleAddReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid date: " + req.Date})
		return
	}

	rem, err := s.session(r).AddReminder(r.Context(), r.PathValue("id"), app.ReminderInput{
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReminderJSON(rem))
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.session(r).DeleteReminder(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePayReminder(w http.ResponseWriter, r *http.Request) {
	t, err := s.session(r).PayReminder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(t))
}

type investmentRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	CustomType     string `json:"customType"`
	Amount         string `json:"amount"`
	ExpectedReturn string `json:"expectedReturn"`
	ReturnFreq     string `json:"returnFrequency"`
	Date           string `json:"date"`
}

func (s *Server) handleAddInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid date: " + req.Date})
		return
	}

	inv, err := s.session(r).AddInvestment(r.Context(), r.PathValue("id"), app.InvestmentInput{
		Name:           req.Name,
		Type:           core.InvestmentType(req.Type),
		CustomType:     req.CustomType,
		Amount:         req.Amount,
		ExpectedReturn: req.ExpectedReturn,
		ReturnFreq:     core.ReturnFrequency(req.ReturnFreq),
		Date:           date,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvestmentJSON(inv))
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	if err := s.session(r).DeleteInvestment(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type languageRequest struct {
	Language string `json:"language"`
}

func (s *Server) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	lang, err := s.svc.Language(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if lang == "" {
		lang = s.defaultLanguage
	}
	writeJSON(w, http.StatusOK, map[string]string{"language": lang})
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.svc.SetLanguage(r.Context(), req.Language); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"language": req.Language})
}
