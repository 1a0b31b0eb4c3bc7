// Package memory is the in-memory store backend, used in tests and as the
// default backend for local development.
package memory

import (
	"context"
	"strings"
	"sync"

	"fincontrol/internal/core"
	"fincontrol/internal/store"
)

// Store keeps every record in process memory behind one mutex. Returned
// controls are deep copies so callers never alias internal state.
type Store struct {
	mu       sync.Mutex
	users    []user
	session  *core.User
	controls []core.FinancialControl
	language string

	// failures maps an operation name to the error its next invocation
	// should return. Used by tests to simulate backend rejections.
	failures map[string]error
}

type user struct {
	core.User
	passwordHash string
}

func New() *Store {
	return &Store{failures: make(map[string]error)}
}

// FailNext makes the next call of the named operation fail with err.
// Operation names match the Store interface method names.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) takeFailure(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return &store.Error{Op: op, Err: err}
	}
	return nil
}

func (s *Store) ListControls(_ context.Context, ownerID string) ([]core.FinancialControl, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("ListControls"); err != nil {
		return nil, err
	}
	var out []core.FinancialControl
	for i := range s.controls {
		if s.controls[i].OwnerID == ownerID {
			out = append(out, cloneControl(s.controls[i]))
		}
	}
	return out, nil
}

func (s *Store) InsertControl(_ context.Context, c core.FinancialControl) (core.FinancialControl, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertControl"); err != nil {
		return core.FinancialControl{}, err
	}
	s.controls = append(s.controls, cloneControl(c))
	return c, nil
}

func (s *Store) DeleteControl(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteControl"); err != nil {
		return err
	}
	for i := range s.controls {
		if s.controls[i].ID == id {
			s.controls = append(s.controls[:i], s.controls[i+1:]...)
			return nil
		}
	}
	return &store.Error{Op: "DeleteControl", Err: store.ErrNotFound}
}

func (s *Store) InsertTransaction(_ context.Context, controlID string, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertTransaction"); err != nil {
		return core.Transaction{}, err
	}
	c := s.control(controlID)
	if c == nil {
		return core.Transaction{}, &store.Error{Op: "InsertTransaction", Err: store.ErrNotFound}
	}
	// Newest-first is a stored invariant, so inserts prepend.
	c.Transactions = append([]core.Transaction{t}, c.Transactions...)
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteTransaction"); err != nil {
		return err
	}
	for i := range s.controls {
		c := &s.controls[i]
		for j := range c.Transactions {
			if c.Transactions[j].ID == id {
				c.Transactions = append(c.Transactions[:j], c.Transactions[j+1:]...)
				return nil
			}
		}
	}
	return &store.Error{Op: "DeleteTransaction", Err: store.ErrNotFound}
}

func (s *Store) InsertReminder(_ context.Context, controlID string, r core.Reminder) (core.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertReminder"); err != nil {
		return core.Reminder{}, err
	}
	c := s.control(controlID)
	if c == nil {
		return core.Reminder{}, &store.Error{Op: "InsertReminder", Err: store.ErrNotFound}
	}
	c.Reminders = append([]core.Reminder{r}, c.Reminders...)
	return r, nil
}

func (s *Store) DeleteReminder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteReminder"); err != nil {
		return err
	}
	for i := range s.controls {
		c := &s.controls[i]
		for j := range c.Reminders {
			if c.Reminders[j].ID == id {
				c.Reminders = append(c.Reminders[:j], c.Reminders[j+1:]...)
				return nil
			}
		}
	}
	return &store.Error{Op: "DeleteReminder", Err: store.ErrNotFound}
}

func (s *Store) InsertInvestment(_ context.Context, controlID string, inv core.Investment) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertInvestment"); err != nil {
		return core.Investment{}, err
	}
	c := s.control(controlID)
	if c == nil {
		return core.Investment{}, &store.Error{Op: "InsertInvestment", Err: store.ErrNotFound}
	}
	c.Investments = append([]core.Investment{inv}, c.Investments...)
	return inv, nil
}

func (s *Store) DeleteInvestment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteInvestment"); err != nil {
		return err
	}
	for i := range s.controls {
		c := &s.controls[i]
		for j := range c.Investments {
			if c.Investments[j].ID == id {
				c.Investments = append(c.Investments[:j], c.Investments[j+1:]...)
				return nil
			}
		}
	}
	return &store.Error{Op: "DeleteInvestment", Err: store.ErrNotFound}
}

func (s *Store) InsertUser(_ context.Context, u core.User, passwordHash string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertUser"); err != nil {
		return core.User{}, err
	}
	s.users = append(s.users, user{User: u, passwordHash: passwordHash})
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u.User, u.passwordHash, nil
		}
	}
	return core.User{}, "", &store.Error{Op: "UserByEmail", Err: store.ErrNotFound}
}

func (s *Store) UserByID(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u.User, nil
		}
	}
	return core.User{}, &store.Error{Op: "UserByID", Err: store.ErrNotFound}
}

func (s *Store) UpdateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == u.ID {
			s.users[i].User = u
			return nil
		}
	}
	return &store.Error{Op: "UpdateUser", Err: store.ErrNotFound}
}

func (s *Store) SaveSession(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.session = nil
		return nil
	}
	copied := *u
	s.session = &copied
	return nil
}

func (s *Store) Session(_ context.Context) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

func (s *Store) Language(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language, nil
}

func (s *Store) SaveLanguage(_ context.Context, lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = lang
	return nil
}

// control returns a pointer into the backing slice; callers hold s.mu.
func (s *Store) control(id string) *core.FinancialControl {
	for i := range s.controls {
		if s.controls[i].ID == id {
			return &s.controls[i]
		}
	}
	return nil
}

func cloneControl(c core.FinancialControl) core.FinancialControl {
	out := c
	out.Members = append([]string(nil), c.Members...)
	out.Transactions = append([]core.Transaction(nil), c.Transactions...)
	out.Investments = append([]core.Investment(nil), c.Investments...)
	out.Reminders = append([]core.Reminder(nil), c.Reminders...)
	return out
}

var _ store.Store = (*Store)(nil)
