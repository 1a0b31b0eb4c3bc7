package core

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func tr(typ TransactionType, amount float64, date time.Time) Transaction {
	return Transaction{
		ID:          "t",
		Description: "test",
		Amount:      decimal.NewFromFloat(amount),
		Type:        typ,
		Category:    CategoryOther,
		Frequency:   OneTime,
		Date:        date,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if !s.Income.IsZero() || !s.Expense.IsZero() || !s.Investment.IsZero() || !s.Balance.IsZero() {
		t.Fatalf("expected all-zero summary, got %+v", s)
	}
}

func TestSummarizeIdentity(t *testing.T) {
	// balance = income - expense - investment must hold for random sequences,
	// and each component must equal the sum of matching amounts.
	rng := rand.New(rand.NewSource(42))
	types := []TransactionType{Income, Expense, TypeInvestment}

	for run := 0; run < 50; run++ {
		n := rng.Intn(40)
		var txs []Transaction
		want := map[TransactionType]decimal.Decimal{
			Income: decimal.Zero, Expense: decimal.Zero, TypeInvestment: decimal.Zero,
		}
		for i := 0; i < n; i++ {
			typ := types[rng.Intn(len(types))]
			amt := decimal.NewFromInt(int64(rng.Intn(100000) + 1)).Div(decimal.NewFromInt(100))
			want[typ] = want[typ].Add(amt)
			txs = append(txs, Transaction{Type: typ, Amount: amt})
		}

		s := Summarize(txs)
		if !s.Income.Equal(want[Income]) {
			t.Fatalf("run %d: income = %s, want %s", run, s.Income, want[Income])
		}
		if !s.Expense.Equal(want[Expense]) {
			t.Fatalf("run %d: expense = %s, want %s", run, s.Expense, want[Expense])
		}
		if !s.Investment.Equal(want[TypeInvestment]) {
			t.Fatalf("run %d: investment = %s, want %s", run, s.Investment, want[TypeInvestment])
		}
		if !s.Balance.Equal(s.Income.Sub(s.Expense).Sub(s.Investment)) {
			t.Fatalf("run %d: balance identity violated: %+v", run, s)
		}
	}
}

func TestFilterTransactionsMonthBoundaries(t *testing.T) {
	jan1 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	jan31 := time.Date(2024, time.January, 31, 23, 59, 59, 0, time.Local)
	feb1 := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local)
	dec31 := time.Date(2023, time.December, 31, 23, 59, 59, 0, time.Local)

	control := &FinancialControl{Transactions: []Transaction{
		tr(Expense, 1, jan31),
		tr(Expense, 2, feb1),
		tr(Expense, 3, jan1),
		tr(Expense, 4, dec31),
	}}

	got := FilterTransactions(control, time.January, 2024, TypeAll)
	if len(got) != 2 {
		t.Fatalf("expected 2 january transactions, got %d", len(got))
	}
	// Stored order must be preserved.
	if !got[0].Date.Equal(jan31) || !got[1].Date.Equal(jan1) {
		t.Fatalf("order not preserved: %v", got)
	}
}

func TestFilterTransactionsTypeFilter(t *testing.T) {
	date := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.Local)
	control := &FinancialControl{Transactions: []Transaction{
		tr(Income, 10, date),
		tr(Expense, 20, date),
		tr(TypeInvestment, 30, date),
	}}

	all := FilterTransactions(control, time.March, 2024, TypeAll)
	none := FilterTransactions(control, time.March, 2024, "")
	if len(all) != 3 || len(none) != 3 {
		t.Fatalf("sentinel filters should match everything: all=%d none=%d", len(all), len(none))
	}

	onlyExpense := FilterTransactions(control, time.March, 2024, Expense)
	if len(onlyExpense) != 1 || onlyExpense[0].Type != Expense {
		t.Fatalf("expected single expense, got %v", onlyExpense)
	}
}

func TestFilterTransactionsAbsentControl(t *testing.T) {
	if got := FilterTransactions(nil, time.January, 2024, TypeAll); len(got) != 0 {
		t.Fatalf("expected empty result for nil control, got %v", got)
	}
}

func TestJanuaryScenario(t *testing.T) {
	jan := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.Local)
	feb := time.Date(2024, time.February, 10, 12, 0, 0, 0, time.Local)
	control := &FinancialControl{Currency: BRL, Transactions: []Transaction{
		tr(Income, 1000, jan),
		tr(Expense, 300, jan),
		tr(Expense, 50, feb),
	}}

	got := FilterTransactions(control, time.January, 2024, TypeAll)
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}

	s := Summarize(got)
	if !s.Income.Equal(decimal.NewFromInt(1000)) ||
		!s.Expense.Equal(decimal.NewFromInt(300)) ||
		!s.Investment.IsZero() ||
		!s.Balance.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	date := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.Local)
	txs := []Transaction{
		{Type: Expense, Category: CategoryFood, Amount: decimal.NewFromInt(10), Date: date},
		{Type: Expense, Category: CategoryFood, Amount: decimal.NewFromInt(5), Date: date},
		{Type: Expense, Category: CategoryHousing, Amount: decimal.NewFromInt(100), Date: date},
	}

	got := CategoryBreakdown(txs)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
	if got[0].Category != CategoryFood || !got[0].Amount.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Category != CategoryHousing || !got[1].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}
}
