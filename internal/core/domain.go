package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income     TransactionType = "income"
	Expense    TransactionType = "expense"
	TypeInvestment TransactionType = "investment"

	// TypeAll is the sentinel accepted by transaction filters meaning
	// "do not filter by type". It is never stored on a transaction.
	TypeAll TransactionType = "all"
)

const (
	OneTime TransactionFrequency = "one-time"
	Monthly TransactionFrequency = "monthly"
)

const (
	Individual ControlType = "individual"
	Group      ControlType = "group"
)

const (
	BRL Currency = "BRL"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

const (
	CategoryFood        Category = "Food"
	CategoryHousing     Category = "Housing"
	CategoryTransport   Category = "Transport"
	CategoryLeisure     Category = "Leisure"
	CategoryHealth      Category = "Health"
	CategoryEducation   Category = "Education"
	CategorySalary      Category = "Salary"
	CategoryInvestments Category = "Investments"
	CategoryOther       Category = "Other"
)

const (
	InvestmentSavings     InvestmentType = "savings"
	InvestmentCrypto      InvestmentType = "crypto"
	InvestmentFunds       InvestmentType = "funds"
	InvestmentETF         InvestmentType = "etf"
	InvestmentStocks      InvestmentType = "stocks"
	InvestmentFixedIncome InvestmentType = "fixed-income"
	InvestmentOtherType   InvestmentType = "other"
)

const (
	ReturnDaily   ReturnFrequency = "daily"
	ReturnMonthly ReturnFrequency = "monthly"
	ReturnYearly  ReturnFrequency = "yearly"
)

type (
	TransactionType      string
	TransactionFrequency string
	ControlType          string
	Currency             string
	Category             string
	InvestmentType       string
	ReturnFrequency      string

	// User is the authenticated identity. Nickname and Avatar are optional.
	User struct {
		ID       string
		Name     string
		Nickname string
		Email    string
		Avatar   string
	}

	// Transaction is immutable once created and owned by exactly one control.
	Transaction struct {
		ID          string
		Description string
		Amount      decimal.Decimal
		Type        TransactionType
		Category    Category
		Frequency   TransactionFrequency
		Date        time.Time
	}

	// Reminder is a scheduled future expense that has not been recorded
	// as a transaction yet.
	Reminder struct {
		ID          string
		Description string
		Amount      decimal.Decimal
		Date        time.Time
	}

	Investment struct {
		ID             string
		Name           string
		Type           InvestmentType
		CustomType     string // free text, only meaningful when Type is "other"
		Amount         decimal.Decimal
		ExpectedReturn string
		ReturnFreq     ReturnFrequency
		Date           time.Time
	}

	// FinancialControl is a named ledger grouping transactions, reminders
	// and investments under one owner. Transactions are stored newest-first.
	FinancialControl struct {
		ID           string
		Name         string
		Currency     Currency
		Type         ControlType
		OwnerID      string
		Members      []string
		Transactions []Transaction
		Investments  []Investment
		Reminders    []Reminder
	}
)

var (
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidFrequency   = errors.New("invalid transaction frequency")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrInvalidControlType = errors.New("invalid control type")
	ErrMissingOwner       = errors.New("missing owner id")
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrInvalidInvestment  = errors.New("invalid investment type")
	ErrInvalidReturnFreq  = errors.New("invalid return frequency")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, TypeInvestment:
		return true
	}
	return false
}

func (f TransactionFrequency) Valid() bool {
	switch f {
	case OneTime, Monthly:
		return true
	}
	return false
}

func (ct ControlType) Valid() bool {
	switch ct {
	case Individual, Group:
		return true
	}
	return false
}

func (c Currency) Valid() bool {
	switch c {
	case BRL, USD, EUR:
		return true
	}
	return false
}

// Categories lists the fixed labels in display order.
func Categories() []Category {
	return []Category{
		CategoryFood, CategoryHousing, CategoryTransport,
		CategoryLeisure, CategoryHealth, CategoryEducation,
		CategorySalary, CategoryInvestments, CategoryOther,
	}
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func (it InvestmentType) Valid() bool {
	switch it {
	case InvestmentSavings, InvestmentCrypto, InvestmentFunds,
		InvestmentETF, InvestmentStocks, InvestmentFixedIncome,
		InvestmentOtherType:
		return true
	}
	return false
}

func (rf ReturnFrequency) Valid() bool {
	switch rf {
	case ReturnDaily, ReturnMonthly, ReturnYearly:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	if !t.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (r Reminder) Validate() error {
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if r.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (i Investment) Validate() error {
	if len(strings.TrimSpace(i.Name)) == 0 {
		return ErrEmptyName
	}
	if !i.Type.Valid() {
		return ErrInvalidInvestment
	}
	if !i.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if i.ReturnFreq != "" && !i.ReturnFreq.Valid() {
		return ErrInvalidReturnFreq
	}
	if i.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (c FinancialControl) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if !c.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if !c.Type.Valid() {
		return ErrInvalidControlType
	}
	if strings.TrimSpace(c.OwnerID) == "" {
		return ErrMissingOwner
	}
	return nil
}

// FindControl returns the control with the given id, or nil.
func FindControl(controls []FinancialControl, id string) *FinancialControl {
	for i := range controls {
		if controls[i].ID == id {
			return &controls[i]
		}
	}
	return nil
}
