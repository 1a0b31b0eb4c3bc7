package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fincontrol/internal/app"
	"fincontrol/internal/auth"
	"fincontrol/internal/store/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := memory.New()
	provider := auth.NewLocal(mem, mem, "test-secret-0123456789", time.Hour)
	svc := app.NewService(mem, nil, nil)

	srv := NewServer("127.0.0.1:0", provider, svc, mem, nil, "pt-BR", nil)
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(srv.rateLimiter.stop)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, data
}

func signUp(t *testing.T, base string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, base+"/api/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "hunter22", "name": "Ana",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status %d: %s", resp.StatusCode, body)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		t.Fatalf("signup response missing token: %s", body)
	}
	return out.Token
}

func createControl(t *testing.T, base, token string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, base+"/api/controls", token, map[string]string{
		"name": "Casa", "currency": "BRL", "type": "individual",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create control status %d: %s", resp.StatusCode, body)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.ID == "" {
		t.Fatalf("create control response missing id: %s", body)
	}
	return out.ID
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/controls", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/controls", "not-a-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}
}

func TestSignUpSignInFlow(t *testing.T) {
	ts := newTestServer(t)
	signUp(t, ts.URL)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/signin", "", map[string]string{
		"email": "ana@example.com", "password": "hunter22",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signin status %d: %s", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/signin", "", map[string]string{
		"email": "ana@example.com", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "hunter22",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
}

func TestControlAndTransactionFlow(t *testing.T) {
	ts := newTestServer(t)
	token := signUp(t, ts.URL)
	controlID := createControl(t, ts.URL, token)

	add := func(desc, amount, typ, category, date string) {
		resp, body := doJSON(t, http.MethodPost,
			fmt.Sprintf("%s/api/controls/%s/transactions", ts.URL, controlID), token,
			map[string]string{
				"description": desc, "amount": amount, "type": typ,
				"category": category, "date": date,
			})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("add transaction status %d: %s", resp.StatusCode, body)
		}
	}
	add("Salary", "1000", "income", "Salary", "2026-01-05")
	add("Rent", "300", "expense", "Housing", "2026-01-10")
	add("Cinema", "50", "expense", "Leisure", "2026-02-02")

	// January summary ignores the February expense.
	resp, body := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/controls/%s/summary?month=1&year=2026", ts.URL, controlID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status %d: %s", resp.StatusCode, body)
	}
	var sum struct {
		Summary summaryJSON `json:"summary"`
	}
	if err := json.Unmarshal(body, &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Summary.Income != "1000" || sum.Summary.Expense != "300" || sum.Summary.Balance != "700" {
		t.Fatalf("unexpected summary: %+v", sum.Summary)
	}
	if sum.Summary.FormattedBalance == "" {
		t.Fatal("expected formatted balance")
	}

	// History is newest-first within the month, filterable by type.
	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/controls/%s/transactions?month=1&year=2026&type=expense", ts.URL, controlID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status %d: %s", resp.StatusCode, body)
	}
	var hist struct {
		Transactions []transactionJSON `json:"transactions"`
	}
	if err := json.Unmarshal(body, &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Transactions) != 1 || hist.Transactions[0].Description != "Rent" {
		t.Fatalf("unexpected history: %+v", hist.Transactions)
	}

	// Category breakdown covers January expenses only.
	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/controls/%s/categories?month=1&year=2026", ts.URL, controlID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("categories status %d: %s", resp.StatusCode, body)
	}
	var cats struct {
		Categories []categoryJSON `json:"categories"`
	}
	if err := json.Unmarshal(body, &cats); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(cats.Categories) != 1 || cats.Categories[0].Category != "Housing" || cats.Categories[0].Amount != "300" {
		t.Fatalf("unexpected categories: %+v", cats.Categories)
	}

	// Deleting the control cascades.
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/controls/"+controlID, token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete control status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/controls/%s/summary", ts.URL, controlID), token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestTransactionValidation(t *testing.T) {
	ts := newTestServer(t)
	token := signUp(t, ts.URL)
	controlID := createControl(t, ts.URL, token)

	cases := []map[string]string{
		{"description": "", "amount": "10", "type": "expense", "category": "Food", "date": "2026-01-01"},
		{"description": "x", "amount": "-5", "type": "expense", "category": "Food", "date": "2026-01-01"},
		{"description": "x", "amount": "abc", "type": "expense", "category": "Food", "date": "2026-01-01"},
		{"description": "x", "amount": "10", "type": "loan", "category": "Food", "date": "2026-01-01"},
		{"description": "x", "amount": "10", "type": "expense", "category": "Misc", "date": "2026-01-01"},
	}
	for i, c := range cases {
		resp, body := doJSON(t, http.MethodPost,
			fmt.Sprintf("%s/api/controls/%s/transactions", ts.URL, controlID), token, c)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d: %s", i, resp.StatusCode, body)
		}
	}
}

func TestReminderPayFlow(t *testing.T) {
	ts := newTestServer(t)
	token := signUp(t, ts.URL)
	controlID := createControl(t, ts.URL, token)

	resp, body := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/controls/%s/reminders", ts.URL, controlID), token,
		map[string]string{"description": "Rent", "amount": "1200", "date": "2026-02-01"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add reminder status %d: %s", resp.StatusCode, body)
	}
	var rem reminderJSON
	if err := json.Unmarshal(body, &rem); err != nil {
		t.Fatalf("decode reminder: %v", err)
	}

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/reminders/"+rem.ID+"/pay", token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("pay status %d: %s", resp.StatusCode, body)
	}
	var tx transactionJSON
	if err := json.Unmarshal(body, &tx); err != nil {
		t.Fatalf("decode expense: %v", err)
	}
	if tx.Description != "Rent" || tx.Amount != "1200" || tx.Type != "expense" || tx.Category != "Other" {
		t.Fatalf("unexpected expense: %+v", tx)
	}

	// The reminder is gone afterwards.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/reminders/"+rem.ID+"/pay", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 paying twice, got %d", resp.StatusCode)
	}
}

func TestLanguageSettings(t *testing.T) {
	ts := newTestServer(t)
	token := signUp(t, ts.URL)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/settings/language", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get language status %d: %s", resp.StatusCode, body)
	}
	var lang struct {
		Language string `json:"language"`
	}
	if err := json.Unmarshal(body, &lang); err != nil || lang.Language != "pt-BR" {
		t.Fatalf("expected default pt-BR, got %s", body)
	}

	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/settings/language", token,
		map[string]string{"language": "en-US"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set language status %d", resp.StatusCode)
	}
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/settings/language", "", nil)
	if err := json.Unmarshal(body, &lang); err != nil || lang.Language != "en-US" {
		t.Fatalf("language not persisted: %s", body)
	}

	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/settings/language", token,
		map[string]string{"language": "fr-FR"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported language, got %d", resp.StatusCode)
	}
}

func TestAdviceNotConfigured(t *testing.T) {
	ts := newTestServer(t)
	token := signUp(t, ts.URL)
	controlID := createControl(t, ts.URL, token)

	resp, _ := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/controls/%s/advice", ts.URL, controlID), token, nil)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501 without advisor, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", resp.StatusCode, body)
	}
}
