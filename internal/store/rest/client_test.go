package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fincontrol/internal/core"
)

func TestListControlsAssemblesOwnedCollections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("apikey"); got != "test-key" {
			t.Errorf("missing apikey header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/financial_controls":
			if got := r.URL.Query().Get("owner_id"); got != "eq.u1" {
				t.Errorf("owner filter = %q", got)
			}
			json.NewEncoder(w).Encode([]wireControl{
				{ID: "c1", Name: "Home", Currency: "BRL", Type: "individual", OwnerID: "u1"},
			})
		case "/transactions":
			json.NewEncoder(w).Encode([]wireTransaction{
				{ID: "t1", ControlID: "c1", Description: "salary", Amount: "1000",
					Type: "income", Category: "Salary", Frequency: "one-time",
					Date: "2024-01-05T12:00:00Z"},
			})
		case "/reminders":
			json.NewEncoder(w).Encode([]wireReminder{
				{ID: "r1", ControlID: "c1", Description: "rent", Amount: "1200",
					Date: "2024-03-05T12:00:00Z"},
			})
		case "/investments":
			json.NewEncoder(w).Encode([]wireInvestment{})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	controls, err := c.ListControls(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListControls: %v", err)
	}
	if len(controls) != 1 {
		t.Fatalf("expected 1 control, got %d", len(controls))
	}
	ctrl := controls[0]
	if len(ctrl.Transactions) != 1 || ctrl.Transactions[0].Type != core.Income {
		t.Fatalf("transactions not assembled: %+v", ctrl.Transactions)
	}
	if !ctrl.Transactions[0].Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("amount = %s", ctrl.Transactions[0].Amount)
	}
	if len(ctrl.Reminders) != 1 || ctrl.Reminders[0].Description != "rent" {
		t.Fatalf("reminders not assembled: %+v", ctrl.Reminders)
	}
}

func TestInsertTransactionReturnsRepresentation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transactions" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			t.Errorf("Prefer header = %q", got)
		}
		var batch []wireTransaction
		json.NewDecoder(r.Body).Decode(&batch)
		// Simulate a server-assigned id.
		batch[0].ID = "server-id"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(batch)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	in := core.Transaction{
		Description: "coffee", Amount: decimal.NewFromFloat(4.5),
		Type: core.Expense, Category: core.CategoryFood, Frequency: core.OneTime,
		Date: mustDate(t, "2024-02-02T10:00:00Z"),
	}
	got, err := c.InsertTransaction(context.Background(), "c1", in)
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	if got.ID != "server-id" {
		t.Fatalf("expected server-assigned id, got %q", got.ID)
	}
}

func TestStoreErrorOnRejectedCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if err := c.DeleteTransaction(context.Background(), "t1"); err == nil {
		t.Fatal("expected error from rejected delete")
	}
}

func TestDecodeRejectsUnknownEnums(t *testing.T) {
	_, err := wireTransaction{
		ID: "t1", Amount: "10", Type: "loan", Category: "Food",
		Frequency: "one-time", Date: "2024-01-01T00:00:00Z",
	}.toDomain()
	if err == nil {
		t.Fatal("expected error for unknown transaction type")
	}

	_, err = wireControl{ID: "c1", Currency: "GBP", Type: "individual"}.toDomain()
	if err == nil {
		t.Fatal("expected error for unknown currency")
	}
}

func TestDecodeNormalizesLegacyCategory(t *testing.T) {
	tr, err := wireTransaction{
		ID: "t1", Amount: "10", Type: "expense", Category: "Groceries2019",
		Frequency: "one-time", Date: "2024-01-01T00:00:00Z",
	}.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if tr.Category != core.CategoryOther {
		t.Fatalf("legacy category should fold into Other, got %q", tr.Category)
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return ts
}
