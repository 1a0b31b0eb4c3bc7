// Package rest is the remote store backend: a PostgREST-style JSON API
// with one hosted table per entity, keyed by owner/control foreign keys.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fincontrol/internal/core"
	"fincontrol/internal/store"
)

// Client talks to the remote tables. The current-session record and the
// language preference are client-local state, mirroring the split between
// hosted data and per-device settings.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	mu       sync.Mutex
	session  *core.User
	language string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) ListControls(ctx context.Context, ownerID string) ([]core.FinancialControl, error) {
	var wires []wireControl
	if err := c.get(ctx, "financial_controls", url.Values{"owner_id": {"eq." + ownerID}}, &wires); err != nil {
		return nil, &store.Error{Op: "ListControls", Err: err}
	}

	controls := make([]core.FinancialControl, len(wires))
	for i, w := range wires {
		ctrl, err := w.toDomain()
		if err != nil {
			return nil, &store.Error{Op: "ListControls", Err: err}
		}
		controls[i] = ctrl
	}

	// Owned collections are fetched per control; the remote API has no
	// embedded-select shortcut so the fetches run concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range controls {
		g.Go(func() error { return c.loadTransactions(gctx, &controls[i]) })
		g.Go(func() error { return c.loadReminders(gctx, &controls[i]) })
		g.Go(func() error { return c.loadInvestments(gctx, &controls[i]) })
	}
	if err := g.Wait(); err != nil {
		return nil, &store.Error{Op: "ListControls", Err: err}
	}
	return controls, nil
}

func (c *Client) loadTransactions(ctx context.Context, ctrl *core.FinancialControl) error {
	var wires []wireTransaction
	q := url.Values{"control_id": {"eq." + ctrl.ID}, "order": {"created_at.desc"}}
	if err := c.get(ctx, "transactions", q, &wires); err != nil {
		return err
	}
	ctrl.Transactions = make([]core.Transaction, len(wires))
	for i, w := range wires {
		t, err := w.toDomain()
		if err != nil {
			return err
		}
		ctrl.Transactions[i] = t
	}
	return nil
}

func (c *Client) loadReminders(ctx context.Context, ctrl *core.FinancialControl) error {
	var wires []wireReminder
	q := url.Values{"control_id": {"eq." + ctrl.ID}, "order": {"created_at.desc"}}
	if err := c.get(ctx, "reminders", q, &wires); err != nil {
		return err
	}
	ctrl.Reminders = make([]core.Reminder, len(wires))
	for i, w := range wires {
		r, err := w.toDomain()
		if err != nil {
			return err
		}
		ctrl.Reminders[i] = r
	}
	return nil
}

func (c *Client) loadInvestments(ctx context.Context, ctrl *core.FinancialControl) error {
	var wires []wireInvestment
	q := url.Values{"control_id": {"eq." + ctrl.ID}, "order": {"created_at.desc"}}
	if err := c.get(ctx, "investments", q, &wires); err != nil {
		return err
	}
	ctrl.Investments = make([]core.Investment, len(wires))
	for i, w := range wires {
		inv, err := w.toDomain()
		if err != nil {
			return err
		}
		ctrl.Investments[i] = inv
	}
	return nil
}

func (c *Client) InsertControl(ctx context.Context, ctrl core.FinancialControl) (core.FinancialControl, error) {
	var out []wireControl
	if err := c.post(ctx, "financial_controls", fromControl(ctrl), &out); err != nil {
		return core.FinancialControl{}, &store.Error{Op: "InsertControl", Err: err}
	}
	if len(out) == 0 {
		return core.FinancialControl{}, &store.Error{Op: "InsertControl", Err: fmt.Errorf("empty representation in response")}
	}
	persisted, err := out[0].toDomain()
	if err != nil {
		return core.FinancialControl{}, &store.Error{Op: "InsertControl", Err: err}
	}
	return persisted, nil
}

func (c *Client) DeleteControl(ctx context.Context, id string) error {
	// The hosted schema cascades control deletion to owned rows.
	if err := c.delete(ctx, "financial_controls", id); err != nil {
		return &store.Error{Op: "DeleteControl", Err: err}
	}
	return nil
}

func (c *Client) InsertTransaction(ctx context.Context, controlID string, t core.Transaction) (core.Transaction, error) {
	var out []wireTransaction
	if err := c.post(ctx, "transactions", fromTransaction(controlID, t), &out); err != nil {
		return core.Transaction{}, &store.Error{Op: "InsertTransaction", Err: err}
	}
	if len(out) == 0 {
		return core.Transaction{}, &store.Error{Op: "InsertTransaction", Err: fmt.Errorf("empty representation in response")}
	}
	persisted, err := out[0].toDomain()
	if err != nil {
		return core.Transaction{}, &store.Error{Op: "InsertTransaction", Err: err}
	}
	return persisted, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if err := c.delete(ctx, "transactions", id); err != nil {
		return &store.Error{Op: "DeleteTransaction", Err: err}
	}
	return nil
}

func (c *Client) InsertReminder(ctx context.Context, controlID string, r core.Reminder) (core.Reminder, error) {
	var out []wireReminder
	if err := c.post(ctx, "reminders", fromReminder(controlID, r), &out); err != nil {
		return core.Reminder{}, &store.Error{Op: "InsertReminder", Err: err}
	}
	if len(out) == 0 {
		return core.Reminder{}, &store.Error{Op: "InsertReminder", Err: fmt.Errorf("empty representation in response")}
	}
	persisted, err := out[0].toDomain()
	if err != nil {
		return core.Reminder{}, &store.Error{Op: "InsertReminder", Err: err}
	}
	return persisted, nil
}

func (c *Client) DeleteReminder(ctx context.Context, id string) error {
	if err := c.delete(ctx, "reminders", id); err != nil {
		return &store.Error{Op: "DeleteReminder", Err: err}
	}
	return nil
}

func (c *Client) InsertInvestment(ctx context.Context, controlID string, inv core.Investment) (core.Investment, error) {
	var out []wireInvestment
	if err := c.post(ctx, "investments", fromInvestment(controlID, inv), &out); err != nil {
		return core.Investment{}, &store.Error{Op: "InsertInvestment", Err: err}
	}
	if len(out) == 0 {
		return core.Investment{}, &store.Error{Op: "InsertInvestment", Err: fmt.Errorf("empty representation in response")}
	}
	persisted, err := out[0].toDomain()
	if err != nil {
		return core.Investment{}, &store.Error{Op: "InsertInvestment", Err: err}
	}
	return persisted, nil
}

func (c *Client) DeleteInvestment(ctx context.Context, id string) error {
	if err := c.delete(ctx, "investments", id); err != nil {
		return &store.Error{Op: "DeleteInvestment", Err: err}
	}
	return nil
}

func (c *Client) InsertUser(ctx context.Context, u core.User, passwordHash string) (core.User, error) {
	var out []wireProfile
	if err := c.post(ctx, "profiles", fromUser(u, passwordHash), &out); err != nil {
		return core.User{}, &store.Error{Op: "InsertUser", Err: err}
	}
	if len(out) == 0 {
		return core.User{}, &store.Error{Op: "InsertUser", Err: fmt.Errorf("empty representation in response")}
	}
	return out[0].toDomain(), nil
}

func (c *Client) UserByEmail(ctx context.Context, email string) (core.User, string, error) {
	var out []wireProfile
	if err := c.get(ctx, "profiles", url.Values{"email": {"eq." + email}}, &out); err != nil {
		return core.User{}, "", &store.Error{Op: "UserByEmail", Err: err}
	}
	if len(out) == 0 {
		return core.User{}, "", &store.Error{Op: "UserByEmail", Err: store.ErrNotFound}
	}
	return out[0].toDomain(), out[0].PasswordHash, nil
}

func (c *Client) UserByID(ctx context.Context, id string) (core.User, error) {
	var out []wireProfile
	if err := c.get(ctx, "profiles", url.Values{"id": {"eq." + id}}, &out); err != nil {
		return core.User{}, &store.Error{Op: "UserByID", Err: err}
	}
	if len(out) == 0 {
		return core.User{}, &store.Error{Op: "UserByID", Err: store.ErrNotFound}
	}
	return out[0].toDomain(), nil
}

func (c *Client) UpdateUser(ctx context.Context, u core.User) error {
	body := map[string]string{"name": u.Name, "nickname": u.Nickname, "avatar_url": u.Avatar}
	if err := c.patch(ctx, "profiles", u.ID, body); err != nil {
		return &store.Error{Op: "UpdateUser", Err: err}
	}
	return nil
}

func (c *Client) SaveSession(_ context.Context, u *core.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u == nil {
		c.session = nil
		return nil
	}
	copied := *u
	c.session = &copied
	return nil
}

func (c *Client) Session(_ context.Context) (*core.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, nil
	}
	copied := *c.session
	return &copied, nil
}

func (c *Client) Language(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language, nil
}

func (c *Client) SaveLanguage(_ context.Context, lang string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = lang
	return nil
}

func (c *Client) get(ctx context.Context, table string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, table, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, table string, body any, out any) error {
	payload, err := json.Marshal([]any{body})
	if err != nil {
		return fmt.Errorf("marshal %s insert: %w", table, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, table, nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")
	return c.do(req, out)
}

func (c *Client) patch(ctx context.Context, table, id string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s update: %w", table, err)
	}
	req, err := c.newRequest(ctx, http.MethodPatch, table, url.Values{"id": {"eq." + id}}, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) delete(ctx context.Context, table, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, table, url.Values{"id": {"eq." + id}}, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, table string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + "/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, table, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

var _ store.Store = (*Client)(nil)
