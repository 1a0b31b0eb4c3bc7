package rest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fincontrol/internal/core"
)

// Wire records mirror the remote snake_case schema. They are mapped into
// the domain at this boundary; unknown enum values are rejected rather
// than trusted at runtime.

type wireControl struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Type     string   `json:"type"`
	OwnerID  string   `json:"owner_id"`
	Members  []string `json:"members"`
}

type wireTransaction struct {
	ID          string      `json:"id"`
	ControlID   string      `json:"control_id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Frequency   string      `json:"frequency"`
	Date        string      `json:"date"`
}

type wireReminder struct {
	ID          string      `json:"id"`
	ControlID   string      `json:"control_id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
}

type wireInvestment struct {
	ID              string      `json:"id"`
	ControlID       string      `json:"control_id"`
	Name            string      `json:"name"`
	Type            string      `json:"type"`
	CustomType      string      `json:"custom_type"`
	Amount          json.Number `json:"amount"`
	ExpectedReturn  string      `json:"expected_return"`
	ReturnFrequency string      `json:"return_frequency"`
	Date            string      `json:"date"`
}

type wireProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Nickname     string `json:"nickname"`
	Email        string `json:"email"`
	AvatarURL    string `json:"avatar_url"`
	PasswordHash string `json:"password_hash,omitempty"`
}

func (w wireControl) toDomain() (core.FinancialControl, error) {
	c := core.FinancialControl{
		ID:       w.ID,
		Name:     w.Name,
		Currency: core.Currency(w.Currency),
		Type:     core.ControlType(w.Type),
		OwnerID:  w.OwnerID,
		Members:  w.Members,
	}
	if !c.Currency.Valid() {
		return core.FinancialControl{}, fmt.Errorf("control %s: unknown currency %q", w.ID, w.Currency)
	}
	if !c.Type.Valid() {
		return core.FinancialControl{}, fmt.Errorf("control %s: unknown type %q", w.ID, w.Type)
	}
	if c.Members == nil {
		c.Members = []string{}
	}
	return c, nil
}

func (w wireTransaction) toDomain() (core.Transaction, error) {
	amount, date, err := parseAmountDate(w.Amount, w.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", w.ID, err)
	}
	t := core.Transaction{
		ID:          w.ID,
		Description: w.Description,
		Amount:      amount,
		Type:        core.TransactionType(w.Type),
		Category:    core.Category(w.Category),
		Frequency:   core.TransactionFrequency(w.Frequency),
		Date:        date,
	}
	if !t.Type.Valid() {
		return core.Transaction{}, fmt.Errorf("transaction %s: unknown type %q", w.ID, w.Type)
	}
	if !t.Category.Valid() {
		// Legacy rows carry labels outside the fixed set; fold them
		// into Other instead of refusing the whole control.
		t.Category = core.CategoryOther
	}
	if !t.Frequency.Valid() {
		return core.Transaction{}, fmt.Errorf("transaction %s: unknown frequency %q", w.ID, w.Frequency)
	}
	return t, nil
}

func (w wireReminder) toDomain() (core.Reminder, error) {
	amount, date, err := parseAmountDate(w.Amount, w.Date)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("reminder %s: %w", w.ID, err)
	}
	return core.Reminder{
		ID:          w.ID,
		Description: w.Description,
		Amount:      amount,
		Date:        date,
	}, nil
}

func (w wireInvestment) toDomain() (core.Investment, error) {
	amount, date, err := parseAmountDate(w.Amount, w.Date)
	if err != nil {
		return core.Investment{}, fmt.Errorf("investment %s: %w", w.ID, err)
	}
	inv := core.Investment{
		ID:             w.ID,
		Name:           w.Name,
		Type:           core.InvestmentType(w.Type),
		CustomType:     w.CustomType,
		Amount:         amount,
		ExpectedReturn: w.ExpectedReturn,
		ReturnFreq:     core.ReturnFrequency(w.ReturnFrequency),
		Date:           date,
	}
	if !inv.Type.Valid() {
		return core.Investment{}, fmt.Errorf("investment %s: unknown type %q", w.ID, w.Type)
	}
	if w.ReturnFrequency != "" && !inv.ReturnFreq.Valid() {
		return core.Investment{}, fmt.Errorf("investment %s: unknown return frequency %q", w.ID, w.ReturnFrequency)
	}
	return inv, nil
}

func (w wireProfile) toDomain() core.User {
	return core.User{
		ID:       w.ID,
		Name:     w.Name,
		Nickname: w.Nickname,
		Email:    w.Email,
		Avatar:   w.AvatarURL,
	}
}

func fromControl(c core.FinancialControl) wireControl {
	return wireControl{
		ID:       c.ID,
		Name:     c.Name,
		Currency: string(c.Currency),
		Type:     string(c.Type),
		OwnerID:  c.OwnerID,
		Members:  c.Members,
	}
}

func fromTransaction(controlID string, t core.Transaction) wireTransaction {
	return wireTransaction{
		ID:          t.ID,
		ControlID:   controlID,
		Description: t.Description,
		Amount:      json.Number(t.Amount.String()),
		Type:        string(t.Type),
		Category:    string(t.Category),
		Frequency:   string(t.Frequency),
		Date:        t.Date.Format(time.RFC3339),
	}
}

func fromReminder(controlID string, r core.Reminder) wireReminder {
	return wireReminder{
		ID:          r.ID,
		ControlID:   controlID,
		Description: r.Description,
		Amount:      json.Number(r.Amount.String()),
		Date:        r.Date.Format(time.RFC3339),
	}
}

func fromInvestment(controlID string, inv core.Investment) wireInvestment {
	return wireInvestment{
		ID:              inv.ID,
		ControlID:       controlID,
		Name:            inv.Name,
		Type:            string(inv.Type),
		CustomType:      inv.CustomType,
		Amount:          json.Number(inv.Amount.String()),
		ExpectedReturn:  inv.ExpectedReturn,
		ReturnFrequency: string(inv.ReturnFreq),
		Date:            inv.Date.Format(time.RFC3339),
	}
}

func fromUser(u core.User, passwordHash string) wireProfile {
	return wireProfile{
		ID:           u.ID,
		Name:         u.Name,
		Nickname:     u.Nickname,
		Email:        u.Email,
		AvatarURL:    u.Avatar,
		PasswordHash: passwordHash,
	}
}

func parseAmountDate(amount json.Number, date string) (decimal.Decimal, time.Time, error) {
	d, err := decimal.NewFromString(amount.String())
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	ts, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return d, ts, nil
}
