// Package app implements the mutation operations on financial controls.
// Each session keeps the signed-in user's controls in memory and replaces
// the list atomically after every successful store write, so readers never
// observe a half-applied mutation.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fincontrol/internal/core"
	"fincontrol/internal/events"
	applog "fincontrol/internal/log"
	"fincontrol/internal/store"
)

// Publisher is the optional event sink notified after successful mutations.
type Publisher interface {
	Publish(ctx context.Context, evt *events.MutationEvent) error
}

// Service opens and caches per-user sessions over a single store.
type Service struct {
	store  store.Store
	pub    Publisher // nil disables event publishing
	logger *applog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(st store.Store, pub Publisher, logger *applog.Logger) *Service {
	return &Service{
		store:    st,
		pub:      pub,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for the given user, loading their controls from
// the store on first use. Subsequent calls for the same user share state.
func (s *Service) Open(ctx context.Context, user core.User) (*Session, error) {
	s.mu.Lock()
	if existing, ok := s.sessions[user.ID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.mu.Unlock()

	controls, err := s.store.ListControls(ctx, user.ID)
	if err != nil {
		return nil, &store.Error{Op: "list controls", Err: err}
	}

	sess := &Session{
		svc:      s,
		user:     user,
		controls: controls,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[user.ID]; ok {
		return existing, nil
	}
	s.sessions[user.ID] = sess
	return sess, nil
}

// Close drops the cached session for a user, typically on sign-out.
func (s *Service) Close(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *Service) publish(ctx context.Context, evt *events.MutationEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, evt); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "Event publish failed",
			applog.FieldError, err.Error(),
			"entity", evt.Entity,
			"op", evt.Op)
	}
}

// Session holds one user's control list. All mutations write the store
// first and only then swap in a freshly built list under the lock.
type Session struct {
	svc  *Service
	user core.User

	mu       sync.RWMutex
	controls []core.FinancialControl
	selected string
}

func (s *Session) User() core.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Controls returns a snapshot of the control list.
func (s *Session) Controls() []core.FinancialControl {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.FinancialControl, len(s.controls))
	copy(out, s.controls)
	return out
}

// Control returns the control with the given id, or a validation error
// when the session does not contain it.
func (s *Session) Control(id string) (core.FinancialControl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := core.FindControl(s.controls, id); c != nil {
		return *c, nil
	}
	return core.FinancialControl{}, &ValidationError{Err: fmt.Errorf("control %q: %w", id, store.ErrNotFound)}
}

// SelectControl marks an existing control as the active one.
func (s *Session) SelectControl(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if core.FindControl(s.controls, id) == nil {
		return &ValidationError{Err: fmt.Errorf("control %q: %w", id, store.ErrNotFound)}
	}
	s.selected = id
	return nil
}

// Selection returns the active control id, empty when none is selected.
func (s *Session) Selection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// CreateControl validates, persists and appends a new control, then makes
// it the active selection.
func (s *Session) CreateControl(ctx context.Context, name string, currency core.Currency, ctype core.ControlType) (core.FinancialControl, error) {
	c := core.FinancialControl{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(name),
		Currency: currency,
		Type:     ctype,
		OwnerID:  s.user.ID,
		Members:  []string{},
	}
	if err := c.Validate(); err != nil {
		return core.FinancialControl{}, &ValidationError{Err: err}
	}

	saved, err := s.svc.store.InsertControl(ctx, c)
	if err != nil {
		return core.FinancialControl{}, &store.Error{Op: "insert control", Err: err}
	}

	s.mu.Lock()
	next := make([]core.FinancialControl, len(s.controls), len(s.controls)+1)
	copy(next, s.controls)
	next = append(next, saved)
	s.controls = next
	s.selected = saved.ID
	s.mu.Unlock()

	s.svc.publish(ctx, events.NewMutationEvent(events.EntityControl, events.OpCreated, saved.ID, saved.ID, s.user.ID))
	return saved, nil
}

// DeleteControl removes a control and everything it owns. A selection
// pointing at the deleted control is cleared.
func (s *Session) DeleteControl(ctx context.Context, id string) error {
	if _, err := s.Control(id); err != nil {
		return err
	}

	if err := s.svc.store.DeleteControl(ctx, id); err != nil {
		return &store.Error{Op: "delete control", Err: err}
	}

	s.mu.Lock()
	next := make([]core.FinancialControl, 0, len(s.controls))
	for _, c := range s.controls {
		if c.ID != id {
			next = append(next, c)
		}
	}
	s.controls = next
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()

	s.svc.publish(ctx, events.NewMutationEvent(events.EntityControl, events.OpDeleted, id, id, s.user.ID))
	return nil
}

// TransactionInput carries the user-entered fields for a new transaction.
// Amount is the raw input string, accepting both comma and dot decimals.
type TransactionInput struct {
	Description string
	Amount      string
	Type        core.TransactionType
	Category    core.Category
	Date        time.Time
}

// AddTransaction records a transaction at the head of the control's list.
// User entries are always one-time; recurring entries are not supported.
func (s *Session) AddTransaction(ctx context.Context, controlID string, in TransactionInput) (core.Transaction, error) {
	if _, err := s.Control(controlID); err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, &ValidationError{Err: err}
	}

	t := core.Transaction{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(in.Description),
		Amount:      amount,
		Type:        in.Type,
		Category:    in.Category,
		Frequency:   core.OneTime,
		Date:        in.Date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, &ValidationError{Err: err}
	}

	saved, err := s.svc.store.InsertTransaction(ctx, controlID, t)
	if err != nil {
		return core.Transaction{}, &store.Error{Op: "insert transaction", Err: err}
	}

	s.withControl(controlID, func(c *core.FinancialControl) {
		c.Transactions = append([]core.Transaction{saved}, c.Transactions...)
	})

	s.svc.publish(ctx, events.NewMutationEvent(events.EntityTransaction, events.OpCreated, saved.ID, controlID, s.user.ID))
	return saved, nil
}

// DeleteTransaction removes a transaction from whichever control owns it.
func (s *Session) DeleteTransaction(ctx context.Context, id string) error {
	controlID, ok := s.findOwner(func(c core.FinancialControl) bool {
		return hasTransaction(c, id)
	})
	if !ok {
		return &ValidationError{Err: fmt.Errorf("transaction %q: %w", id, store.ErrNotFound)}
	}

	if err := s.svc.store.DeleteTransaction(ctx, id); err != nil {
		return &store.Error{Op: "delete transaction", Err: err}
	}

	s.withControl(controlID, func(c *core.FinancialControl) {
		c.Transactions = withoutTransaction(c.Transactions, id)
	})

	s.svc.publish(ctx, events.NewMutationEvent(events.EntityTransaction, events.OpDeleted, id, controlID, s.user.ID))
	return nil
}

// ReminderInput carries the user-entered fields for a new payment reminder.
type ReminderInput struct {
	Description string
	Amount      string
	Date        time.Time
}

func (s *Session) AddReminder(ctx context.Context, controlID string, in ReminderInput) (core.Reminder, error) {
	if _, err := s.Control(controlID); err != nil {
		return core.Reminder{}, err
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Reminder{}, &ValidationError{Err: err}
	}

	r := core.Reminder{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(in.Description),
		Amount:      amount,
		Date:        in.Date,
	}
	if err := r.Validate(); err != nil {
		return core.Reminder{}, &ValidationError{Err: err}
	}

	saved, err := s.svc.store.InsertReminder(ctx, controlID, r)
	if err != nil {
		return core.Reminder{}, &store.Error{Op: "insert reminder", Err: err}
	}

	s.withControl(controlID, func(c *core.FinancialControl) {
		c.Reminders = append([]core.Reminder{saved}, c.Reminders...)
	})

	s.svc.publish(ctx, events.NewMutationEvent(events.EntityReminder, events.OpCreated, saved.ID, controlID, s.user.ID))
	return saved, nil
}

func (s *Session) DeleteReminder(ctx context.Context, id string) error {
	controlID, ok := s.findOwner(func(c core.FinancialControl) bool {
		return hasReminder(c, id)
	})
	if !ok {
		return &ValidationError{Err: fmt.Errorf("reminder %q: %w", id, store.ErrNotFound)}
	}

	if err := s.svc.store.DeleteReminder(ctx, id); err != nil {
		return &store.Error{Op: "delete reminder", Err: err}
	}

	s.withControl(controlID, func(c *core.FinancialControl) {
		c.Reminders = withoutReminder(c.Reminders, id)
	})

	s.svc.publish(ctx, events.NewMutationEvent(events.EntityReminder, events.OpDeleted, id, controlID, s.user.ID))
	return nil
}

// PayReminder converts a reminder into an expense dated now, then removes
// the reminder. The two store writes are not atomic; when the second one
// fails the recorded expense is kept and the error says so.
func (s *Session) PayReminder(ctx context.Context, reminderID string) (core.Transaction, error) {
	controlID, ok := s.findOwner(func(c core.FinancialControl) bool {
		return hasReminder(c, reminderID)
	})
	if !ok {
		return core.Transaction{}, &ValidationError{Err: fmt.Errorf("reminder %q: %w", reminderID, store.ErrNotFound)}
	}

	control, err := s.Control(controlID)
	if err != nil {
		return core.Transaction{}, err
	}
	var reminder core.Reminder
	for _, r := range control.Reminders {
		if r.ID == reminderID {
			reminder = r
			break
		}
	}

	t := core.Transaction{
		ID:          uuid.NewString(),
		Description: reminder.Description,
		Amount:      reminder.Amount,
		Type:        core.Expense,
		Category:    core.CategoryOther,
		Frequency:   core.OneTime,
		Date:        time.Now(),
	}

	saved, err := s.svc.store.InsertTransaction(ctx, controlID, t)
	if err != nil {
		return core.Transaction{}, &PayReminderError{Step: PayStepInsert, Err: err}
	}

	if err := s.svc.store.DeleteReminder(ctx, reminderID); err != nil {
		// Keep memory consistent with what was persisted: the expense
		// exists, the reminder is still there.
		s.withControl(controlID, func(c *core.FinancialControl) {
			c.Transactions = append([]core.Transaction{saved}, c.Transactions...)
		})
		return saved, &PayReminderError{Step: PayStepRemove, TransactionRecorded: true, Err: err}
	}

	s.withControl(controlID, func(c *core.FinancialControl) {
		c.Transactions = append([]core.Transaction{saved}, c.Transactions...)
		c.Reminders = withoutReminder(c.Reminders, reminderID)
	})

	s.svc.publish(ctx, events.NewMutationEvent(events.EntityReminder, events.OpPaid, reminderID, controlID, s.user.ID))
	return saved, nil
}

// InvestmentInput carries the user-entered fields for a new investment.
type InvestmentInput struct {
	Name           string
	Type           core.InvestmentType
	CustomType     string
	Amount         string
	ExpectedReturn string
	ReturnFreq     core.ReturnFrequency
	Date           time.Time
}

func (s *Session) AddInvestment(ctx context.Context, controlID string, in InvestmentInput) (core.Investment, error) {
	if _, err := s.Control(controlID); err != nil {
		return core.Investment{}, err
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Investment{}, &ValidationError{Err: err}
	}

	inv := core.Investment{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(in.Name),
		Type:           in.Type,
		CustomType:     strings.TrimSpace(in.CustomType),
		Amount:         amount,
		ExpectedReturn: in.ExpectedReturn,
		ReturnFreq:     in.ReturnFreq,
		Date:           in.Date,
	}
	if err := inv.Validate(); err != nil {
		return core.Investment{}, &ValidationError{Err: err}
	}

	saved, err := s.svc.store.InsertInvestment(ctx, controlID, inv)
	if err != nil {
		return core.Investment{}, &store.Error{Op: "insert investment", Err: err}
	}

	s.withControl(controlID, func(c *core.FinancialControl) {
		c.Investments = append([]core.Investment{saved}, c.Investments...)
	})

	s.svc.publish(ctx, events.NewMutationEvent(events.EntityInvestment, events.OpCreated, saved.ID, controlID, s.user.ID))
	return saved, nil
}

func (s *Session) DeleteInvestment(ctx context.Context, id string) error {
	controlID, ok := s.findOwner(func(c core.FinancialControl) bool {
		return hasInvestment(c, id)
	})
	if !ok {
		return &ValidationError{Err: fmt.Errorf("investment %q: %w", id, store.ErrNotFound)}
	}

	if err := s.svc.store.DeleteInvestment(ctx, id); err != nil {
		return &store.Error{Op: "delete investment", Err: err}
	}

	s.withControl(controlID, func(c *core.FinancialControl) {
		c.Investments = withoutInvestment(c.Investments, id)
	})

	s.svc.publish(ctx, events.NewMutationEvent(events.EntityInvestment, events.OpDeleted, id, controlID, s.user.ID))
	return nil
}

// findOwner returns the id of the control matching the predicate.
func (s *Session) findOwner(match func(core.FinancialControl) bool) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.controls {
		if match(c) {
			return c.ID, true
		}
	}
	return "", false
}

// withControl rebuilds the control list with mutate applied to one entry
// and swaps it in under the lock.
func (s *Session) withControl(id string, mutate func(*core.FinancialControl)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]core.FinancialControl, len(s.controls))
	copy(next, s.controls)
	for i := range next {
		if next[i].ID == id {
			mutate(&next[i])
			break
		}
	}
	s.controls = next
}

func hasTransaction(c core.FinancialControl, id string) bool {
	for _, t := range c.Transactions {
		if t.ID == id {
			return true
		}
	}
	return false
}

func hasReminder(c core.FinancialControl, id string) bool {
	for _, r := range c.Reminders {
		if r.ID == id {
			return true
		}
	}
	return false
}

func hasInvestment(c core.FinancialControl, id string) bool {
	for _, inv := range c.Investments {
		if inv.ID == id {
			return true
		}
	}
	return false
}

func withoutTransaction(ts []core.Transaction, id string) []core.Transaction {
	out := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func withoutReminder(rs []core.Reminder, id string) []core.Reminder {
	out := make([]core.Reminder, 0, len(rs))
	for _, r := range rs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func withoutInvestment(invs []core.Investment, id string) []core.Investment {
	out := make([]core.Investment, 0, len(invs))
	for _, inv := range invs {
		if inv.ID != id {
			out = append(out, inv)
		}
	}
	return out
}
