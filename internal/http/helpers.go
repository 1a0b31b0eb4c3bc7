package http

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fincontrol/internal/app"
	"fincontrol/internal/auth"
	"fincontrol/internal/core"
	applog "fincontrol/internal/log"
	"fincontrol/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses. Validation errors
// are 400, missing records 404, auth failures 401 or 409, store failures 502.
func writeError(w http.ResponseWriter, logger *applog.Logger, err error) {
	var (
		verr   *app.ValidationError
		aerr   *auth.Error
		serr   *store.Error
		payErr *app.PayReminderError
	)

	switch {
	case errors.As(err, &payErr):
		writeJSON(w, http.StatusBadGateway, payReminderErrorBody(payErr))
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorBody{Error: verr.Err.Error()})
	case errors.As(err, &aerr):
		status := http.StatusUnauthorized
		switch aerr {
		case auth.ErrEmailTaken:
			status = http.StatusConflict
		case auth.ErrEmptyEmail, auth.ErrWeakPassword:
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorBody{Error: aerr.Reason})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.As(err, &serr):
		if logger != nil {
			logger.Error("Store operation failed", applog.FieldError, err.Error())
		}
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "storage backend unavailable"})
	default:
		if logger != nil {
			logger.Error("Unhandled error", applog.FieldError, err.Error())
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func payReminderErrorBody(e *app.PayReminderError) map[string]any {
	return map[string]any{
		"error":               e.Error(),
		"step":                e.Step,
		"transactionRecorded": e.TransactionRecorded,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseMonthYear extracts the month and year query parameters, defaulting
// to the current calendar month.
func parseMonthYear(r *http.Request) (time.Month, int) {
	now := time.Now()
	month := now.Month()
	year := now.Year()

	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = time.Month(m)
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	return month, year
}

// parseDate parses a date in YYYY-MM-DD form, falling back to RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// JSON shapes returned by the API. Amounts travel as strings to keep
// decimal precision intact.
type (
	userJSON struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Nickname string `json:"nickname,omitempty"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar,omitempty"`
	}

	transactionJSON struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Type        string `json:"type"`
		Category    string `json:"category"`
		Frequency   string `json:"frequency"`
		Date        string `json:"date"`
	}

	reminderJSON struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Date        string `json:"date"`
	}

	investmentJSON struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Type           string `json:"type"`
		CustomType     string `json:"customType,omitempty"`
		Amount         string `json:"amount"`
		ExpectedReturn string `json:"expectedReturn,omitempty"`
		ReturnFreq     string `json:"returnFrequency,omitempty"`
		Date           string `json:"date"`
	}

	controlJSON struct {
		ID           string            `json:"id"`
		Name         string            `json:"name"`
		Currency     string            `json:"currency"`
		Type         string            `json:"type"`
		OwnerID      string            `json:"ownerId"`
		Members      []string          `json:"members"`
		Transactions []transactionJSON `json:"transactions"`
		Reminders    []reminderJSON    `json:"reminders"`
		Investments  []investmentJSON  `json:"investments"`
	}

	summaryJSON struct {
		Income     string `json:"income"`
		Expense    string `json:"expense"`
		Investment string `json:"investment"`
		Balance    string `json:"balance"`

		// Display strings in the control's currency.
		FormattedIncome     string `json:"formattedIncome"`
		FormattedExpense    string `json:"formattedExpense"`
		FormattedInvestment string `json:"formattedInvestment"`
		FormattedBalance    string `json:"formattedBalance"`
	}

	categoryJSON struct {
		Category  string `json:"category"`
		Amount    string `json:"amount"`
		Formatted string `json:"formatted"`
	}
)

func toUserJSON(u core.User) userJSON {
	return userJSON{ID: u.ID, Name: u.Name, Nickname: u.Nickname, Email: u.Email, Avatar: u.Avatar}
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount.String(),
		Type:        string(t.Type),
		Category:    string(t.Category),
		Frequency:   string(t.Frequency),
		Date:        t.Date.Format(time.RFC3339),
	}
}

func toReminderJSON(r core.Reminder) reminderJSON {
	return reminderJSON{
		ID:          r.ID,
		Description: r.Description,
		Amount:      r.Amount.String(),
		Date:        r.Date.Format(time.RFC3339),
	}
}

func toInvestmentJSON(inv core.Investment) investmentJSON {
	return investmentJSON{
		ID:             inv.ID,
		Name:           inv.Name,
		Type:           string(inv.Type),
		CustomType:     inv.CustomType,
		Amount:         inv.Amount.String(),
		ExpectedReturn: inv.ExpectedReturn,
		ReturnFreq:     string(inv.ReturnFreq),
		Date:           inv.Date.Format(time.RFC3339),
	}
}

func toControlJSON(c core.FinancialControl) controlJSON {
	out := controlJSON{
		ID:           c.ID,
		Name:         c.Name,
		Currency:     string(c.Currency),
		Type:         string(c.Type),
		OwnerID:      c.OwnerID,
		Members:      c.Members,
		Transactions: make([]transactionJSON, 0, len(c.Transactions)),
		Reminders:    make([]reminderJSON, 0, len(c.Reminders)),
		Investments:  make([]investmentJSON, 0, len(c.Investments)),
	}
	if out.Members == nil {
		out.Members = []string{}
	}
	for _, t := range c.Transactions {
		out.Transactions = append(out.Transactions, toTransactionJSON(t))
	}
	for _, r := range c.Reminders {
		out.Reminders = append(out.Reminders, toReminderJSON(r))
	}
	for _, inv := range c.Investments {
		out.Investments = append(out.Investments, toInvestmentJSON(inv))
	}
	return out
}

func toSummaryJSON(s core.Summary, currency core.Currency) summaryJSON {
	return summaryJSON{
		Income:              s.Income.String(),
		Expense:             s.Expense.String(),
		Investment:          s.Investment.String(),
		Balance:             s.Balance.String(),
		FormattedIncome:     core.FormatAmount(s.Income, currency),
		FormattedExpense:    core.FormatAmount(s.Expense, currency),
		FormattedInvestment: core.FormatAmount(s.Investment, currency),
		FormattedBalance:    core.FormatAmount(s.Balance, currency),
	}
}
