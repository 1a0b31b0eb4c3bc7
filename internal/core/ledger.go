package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds the aggregated totals for a set of transactions.
// Balance is income minus expenses minus investments.
type Summary struct {
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Investment decimal.Decimal
	Balance    decimal.Decimal
}

// CategoryAmount is an amount aggregated under one category label.
type CategoryAmount struct {
	Category Category
	Amount   decimal.Decimal
}

// FilterTransactions selects the transactions of the given control whose
// stored date falls in the given calendar month and year, compared in the
// date's own location rather than by elapsed time or UTC day boundaries.
// A typeFilter of TypeAll or the empty string matches every type.
//
// The result preserves the stored newest-first order. A nil control yields
// an empty result; the function never fails.
func FilterTransactions(control *FinancialControl, month time.Month, year int, typeFilter TransactionType) []Transaction {
	if control == nil {
		return nil
	}
	var out []Transaction
	for _, tr := range control.Transactions {
		if tr.Date.Month() != month || tr.Date.Year() != year {
			continue
		}
		if typeFilter != "" && typeFilter != TypeAll && tr.Type != typeFilter {
			continue
		}
		out = append(out, tr)
	}
	return out
}

// Summarize reduces transactions into per-type totals. All sums start at
// zero, so an empty input yields an all-zero summary.
func Summarize(transactions []Transaction) Summary {
	var s Summary
	for _, tr := range transactions {
		switch tr.Type {
		case Income:
			s.Income = s.Income.Add(tr.Amount)
		case Expense:
			s.Expense = s.Expense.Add(tr.Amount)
		case TypeInvestment:
			s.Investment = s.Investment.Add(tr.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense).Sub(s.Investment)
	return s
}

// CategoryBreakdown sums transaction amounts per category, returned in the
// fixed category order with zero-amount categories omitted.
func CategoryBreakdown(transactions []Transaction) []CategoryAmount {
	sums := make(map[Category]decimal.Decimal, len(transactions))
	for _, tr := range transactions {
		sums[tr.Category] = sums[tr.Category].Add(tr.Amount)
	}
	var out []CategoryAmount
	for _, cat := range Categories() {
		if amt, ok := sums[cat]; ok && !amt.IsZero() {
			out = append(out, CategoryAmount{Category: cat, Amount: amt})
		}
	}
	return out
}
