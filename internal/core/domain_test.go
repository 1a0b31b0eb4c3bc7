package core

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTransaction() Transaction {
	return Transaction{
		ID:          "t1",
		Description: "groceries",
		Amount:      decimal.NewFromInt(42),
		Type:        Expense,
		Category:    CategoryFood,
		Frequency:   OneTime,
		Date:        time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local),
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"empty description", func(tr *Transaction) { tr.Description = "  " }, ErrEmptyDescription},
		{"long description", func(tr *Transaction) { tr.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{"zero amount", func(tr *Transaction) { tr.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tr *Transaction) { tr.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"bad type", func(tr *Transaction) { tr.Type = "loan" }, ErrInvalidType},
		{"filter sentinel not storable", func(tr *Transaction) { tr.Type = TypeAll }, ErrInvalidType},
		{"bad category", func(tr *Transaction) { tr.Category = "Misc" }, ErrInvalidCategory},
		{"bad frequency", func(tr *Transaction) { tr.Frequency = "weekly" }, ErrInvalidFrequency},
		{"zero date", func(tr *Transaction) { tr.Date = time.Time{} }, ErrZeroDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := validTransaction()
			tc.mutate(&tr)
			if err := tr.Validate(); err != tc.want {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestControlValidate(t *testing.T) {
	good := FinancialControl{Name: "Household", Currency: BRL, Type: Individual, OwnerID: "u1"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []FinancialControl{
		{Name: "", Currency: BRL, Type: Individual, OwnerID: "u1"},
		{Name: "x", Currency: "GBP", Type: Individual, OwnerID: "u1"},
		{Name: "x", Currency: BRL, Type: "shared", OwnerID: "u1"},
		{Name: "x", Currency: BRL, Type: Group, OwnerID: ""},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestReminderValidate(t *testing.T) {
	good := Reminder{Description: "Rent", Amount: decimal.NewFromInt(1200), Date: time.Now()}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Reminder{Description: "", Amount: decimal.NewFromInt(1), Date: time.Now()}).Validate(); err != ErrEmptyDescription {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if err := (Reminder{Description: "x", Amount: decimal.Zero, Date: time.Now()}).Validate(); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestInvestmentValidate(t *testing.T) {
	good := Investment{Name: "Index fund", Type: InvestmentETF, Amount: decimal.NewFromInt(500), Date: time.Now()}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// Return frequency is optional but must be valid when present.
	good.ReturnFreq = "hourly"
	if err := good.Validate(); err != ErrInvalidReturnFreq {
		t.Fatalf("expected ErrInvalidReturnFreq, got %v", err)
	}
	bad := Investment{Name: "x", Type: "bonds", Amount: decimal.NewFromInt(1), Date: time.Now()}
	if err := bad.Validate(); err != ErrInvalidInvestment {
		t.Fatalf("expected ErrInvalidInvestment, got %v", err)
	}
}

func TestFindControl(t *testing.T) {
	controls := []FinancialControl{{ID: "a"}, {ID: "b"}}
	if c := FindControl(controls, "b"); c == nil || c.ID != "b" {
		t.Fatalf("expected control b, got %v", c)
	}
	if c := FindControl(controls, "missing"); c != nil {
		t.Fatalf("expected nil for missing id, got %v", c)
	}
}
