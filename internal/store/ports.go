// Package store defines the persistence port every backend implements.
package store

import (
	"context"
	"errors"
	"fmt"

	"fincontrol/internal/core"
)

// ErrNotFound is returned when the referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Error wraps a backend failure with the operation that caused it so the
// caller can report a precise store error without losing the cause.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Ports for the backing stores. Each insert returns the persisted record,
// including any backend-assigned identifier.
type (
	ControlStore interface {
		// ListControls returns every control owned by the given user,
		// owned collections included, transactions newest-first.
		ListControls(ctx context.Context, ownerID string) ([]core.FinancialControl, error)
		InsertControl(ctx context.Context, c core.FinancialControl) (core.FinancialControl, error)
		// DeleteControl removes the control and all of its owned
		// transactions, reminders and investments.
		DeleteControl(ctx context.Context, id string) error
	}

	LedgerStore interface {
		InsertTransaction(ctx context.Context, controlID string, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
		InsertReminder(ctx context.Context, controlID string, r core.Reminder) (core.Reminder, error)
		DeleteReminder(ctx context.Context, id string) error
		InsertInvestment(ctx context.Context, controlID string, inv core.Investment) (core.Investment, error)
		DeleteInvestment(ctx context.Context, id string) error
	}

	UserStore interface {
		InsertUser(ctx context.Context, u core.User, passwordHash string) (core.User, error)
		UserByEmail(ctx context.Context, email string) (core.User, string, error)
		UserByID(ctx context.Context, id string) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) error
	}

	// SessionStore persists the current-session record. Saving nil clears it.
	SessionStore interface {
		SaveSession(ctx context.Context, u *core.User) error
		Session(ctx context.Context) (*core.User, error)
	}

	SettingsStore interface {
		Language(ctx context.Context) (string, error)
		SaveLanguage(ctx context.Context, lang string) error
	}

	// Store is the full persistence surface backing the application.
	Store interface {
		ControlStore
		LedgerStore
		UserStore
		SessionStore
		SettingsStore
	}
)
