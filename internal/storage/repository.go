// Package storage is the local persisted store, backed by SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fincontrol/internal/core"
	"fincontrol/internal/store"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Cascade deletes rely on foreign keys being enforced.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListControls(ctx context.Context, ownerID string) ([]core.FinancialControl, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, currency, type, owner_id FROM controls WHERE owner_id = ? ORDER BY rowid`,
		ownerID)
	if err != nil {
		return nil, &store.Error{Op: "ListControls", Err: err}
	}
	defer rows.Close()

	var controls []core.FinancialControl
	for rows.Next() {
		var c core.FinancialControl
		if err := rows.Scan(&c.ID, &c.Name, &c.Currency, &c.Type, &c.OwnerID); err != nil {
			return nil, &store.Error{Op: "ListControls", Err: err}
		}
		controls = append(controls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.Error{Op: "ListControls", Err: err}
	}

	for i := range controls {
		if err := r.loadOwned(ctx, &controls[i]); err != nil {
			return nil, err
		}
	}
	return controls, nil
}

func (r *SQLiteRepository) loadOwned(ctx context.Context, c *core.FinancialControl) error {
	memberRows, err := r.db.QueryContext(ctx,
		`SELECT member_id FROM control_members WHERE control_id = ?`, c.ID)
	if err != nil {
		return &store.Error{Op: "ListControls", Err: err}
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var m string
		if err := memberRows.Scan(&m); err != nil {
			return &store.Error{Op: "ListControls", Err: err}
		}
		c.Members = append(c.Members, m)
	}
	if err := memberRows.Err(); err != nil {
		return &store.Error{Op: "ListControls", Err: err}
	}

	trRows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount, type, category, frequency, date
		 FROM transactions WHERE control_id = ? ORDER BY seq DESC`, c.ID)
	if err != nil {
		return &store.Error{Op: "ListControls", Err: err}
	}
	defer trRows.Close()
	for trRows.Next() {
		var (
			t            core.Transaction
			amount, date string
		)
		if err := trRows.Scan(&t.ID, &t.Description, &amount, &t.Type, &t.Category, &t.Frequency, &date); err != nil {
			return &store.Error{Op: "ListControls", Err: err}
		}
		if t.Amount, t.Date, err = parseAmountDate(amount, date); err != nil {
			return &store.Error{Op: "ListControls", Err: err}
		}
		c.Transactions = append(c.Transactions, t)
	}
	if err := trRows.Err(); err != nil {
		return &store.Error{Op: "ListControls", Err: err}
	}

	remRows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount, date FROM reminders WHERE control_id = ? ORDER BY seq DESC`, c.ID)
	if err != nil {
		return &store.Error{Op: "ListControls", Err: err}
	}
	defer remRows.Close()
	for remRows.Next() {
		var (
			rem          core.Reminder
			amount, date string
		)
		if err := remRows.Scan(&rem.ID, &rem.Description, &amount, &date); err != nil {
			return &store.Error{Op: "ListControls", Err: err}
		}
		if rem.Amount, rem.Date, err = parseAmountDate(amount, date); err != nil {
			return &store.Error{Op: "ListControls", Err: err}
		}
		c.Reminders = append(c.Reminders, rem)
	}
	if err := remRows.Err(); err != nil {
		return &store.Error{Op: "ListControls", Err: err}
	}

	invRows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, custom_type, amount, expected_return, return_frequency, date
		 FROM investments WHERE control_id = ? ORDER BY seq DESC`, c.ID)
	if err != nil {
		return &store.Error{Op: "ListControls", Err: err}
	}
	defer invRows.Close()
	for invRows.Next() {
		var (
			inv          core.Investment
			amount, date string
		)
		if err := invRows.Scan(&inv.ID, &inv.Name, &inv.Type, &inv.CustomType, &amount,
			&inv.ExpectedReturn, &inv.ReturnFreq, &date); err != nil {
			return &store.Error{Op: "ListControls", Err: err}
		}
		if inv.Amount, inv.Date, err = parseAmountDate(amount, date); err != nil {
			return &store.Error{Op: "ListControls", Err: err}
		}
		c.Investments = append(c.Investments, inv)
	}
	if err := invRows.Err(); err != nil {
		return &store.Error{Op: "ListControls", Err: err}
	}

	return nil
}

func (r *SQLiteRepository) InsertControl(ctx context.Context, c core.FinancialControl) (core.FinancialControl, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.FinancialControl{}, &store.Error{Op: "InsertControl", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO controls (id, name, currency, type, owner_id) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Currency, c.Type, c.OwnerID); err != nil {
		return core.FinancialControl{}, &store.Error{Op: "InsertControl", Err: err}
	}
	for _, m := range c.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO control_members (control_id, member_id) VALUES (?, ?)`, c.ID, m); err != nil {
			return core.FinancialControl{}, &store.Error{Op: "InsertControl", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return core.FinancialControl{}, &store.Error{Op: "InsertControl", Err: err}
	}

	slog.InfoContext(ctx, "Control saved to SQLite",
		"control_id", c.ID, "name", c.Name, "currency", c.Currency, "type", c.Type)
	return c, nil
}

func (r *SQLiteRepository) DeleteControl(ctx context.Context, id string) error {
	// Owned collections go with it via ON DELETE CASCADE.
	res, err := r.db.ExecContext(ctx, `DELETE FROM controls WHERE id = ?`, id)
	if err != nil {
		return &store.Error{Op: "DeleteControl", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &store.Error{Op: "DeleteControl", Err: store.ErrNotFound}
	}
	slog.InfoContext(ctx, "Control deleted from SQLite", "control_id", id)
	return nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, controlID string, t core.Transaction) (core.Transaction, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, control_id, description, amount, type, category, frequency, date, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?,
		         (SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions WHERE control_id = ?))`,
		t.ID, controlID, t.Description, t.Amount.String(), t.Type, t.Category, t.Frequency,
		t.Date.Format(time.RFC3339), controlID)
	if err != nil {
		return core.Transaction{}, &store.Error{Op: "InsertTransaction", Err: err}
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DeleteTransaction", `DELETE FROM transactions WHERE id = ?`, id)
}

func (r *SQLiteRepository) InsertReminder(ctx context.Context, controlID string, rem core.Reminder) (core.Reminder, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (id, control_id, description, amount, date, seq)
		 VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM reminders WHERE control_id = ?))`,
		rem.ID, controlID, rem.Description, rem.Amount.String(), rem.Date.Format(time.RFC3339), controlID)
	if err != nil {
		return core.Reminder{}, &store.Error{Op: "InsertReminder", Err: err}
	}
	return rem, nil
}

func (r *SQLiteRepository) DeleteReminder(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DeleteReminder", `DELETE FROM reminders WHERE id = ?`, id)
}

func (r *SQLiteRepository) InsertInvestment(ctx context.Context, controlID string, inv core.Investment) (core.Investment, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO investments (id, control_id, name, type, custom_type, amount, expected_return, return_frequency, date, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?,
		         (SELECT COALESCE(MAX(seq), 0) + 1 FROM investments WHERE control_id = ?))`,
		inv.ID, controlID, inv.Name, inv.Type, inv.CustomType, inv.Amount.String(),
		inv.ExpectedReturn, inv.ReturnFreq, inv.Date.Format(time.RFC3339), controlID)
	if err != nil {
		return core.Investment{}, &store.Error{Op: "InsertInvestment", Err: err}
	}
	return inv, nil
}

func (r *SQLiteRepository) DeleteInvestment(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DeleteInvestment", `DELETE FROM investments WHERE id = ?`, id)
}

func (r *SQLiteRepository) InsertUser(ctx context.Context, u core.User, passwordHash string) (core.User, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, nickname, email, avatar, password_hash) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Nickname, u.Email, u.Avatar, passwordHash)
	if err != nil {
		return core.User{}, &store.Error{Op: "InsertUser", Err: err}
	}
	return u, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, string, error) {
	var (
		u    core.User
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, nickname, email, avatar, password_hash FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Nickname, &u.Email, &u.Avatar, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, "", &store.Error{Op: "UserByEmail", Err: store.ErrNotFound}
	}
	if err != nil {
		return core.User{}, "", &store.Error{Op: "UserByEmail", Err: err}
	}
	return u, hash, nil
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, nickname, email, avatar FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Nickname, &u.Email, &u.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, &store.Error{Op: "UserByID", Err: store.ErrNotFound}
	}
	if err != nil {
		return core.User{}, &store.Error{Op: "UserByID", Err: err}
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, nickname = ?, avatar = ? WHERE id = ?`,
		u.Name, u.Nickname, u.Avatar, u.ID)
	if err != nil {
		return &store.Error{Op: "UpdateUser", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &store.Error{Op: "UpdateUser", Err: store.ErrNotFound}
	}
	return nil
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, u *core.User) error {
	if u == nil {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`); err != nil {
			return &store.Error{Op: "SaveSession", Err: err}
		}
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session (id, user_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id`, u.ID)
	if err != nil {
		return &store.Error{Op: "SaveSession", Err: err}
	}
	return nil
}

func (r *SQLiteRepository) Session(ctx context.Context) (*core.User, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM session WHERE id = 1`).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &store.Error{Op: "Session", Err: err}
	}
	u, err := r.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLiteRepository) Language(ctx context.Context) (string, error) {
	var lang string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'language'`).Scan(&lang)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &store.Error{Op: "Language", Err: err}
	}
	return lang, nil
}

func (r *SQLiteRepository) SaveLanguage(ctx context.Context, lang string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('language', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, lang)
	if err != nil {
		return &store.Error{Op: "SaveLanguage", Err: err}
	}
	return nil
}

func (r *SQLiteRepository) deleteByID(ctx context.Context, op, query, id string) error {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return &store.Error{Op: op, Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &store.Error{Op: op, Err: store.ErrNotFound}
	}
	return nil
}

func parseAmountDate(amount, date string) (decimal.Decimal, time.Time, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	ts, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return d, ts, nil
}

var _ store.Store = (*SQLiteRepository)(nil)
