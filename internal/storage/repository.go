// Package storage is the ledger collaborator: a SQLite-backed datastore
// for users, accounts, transactions, budgets, recurring templates and
// the persisted rate tiers. The engine packages only ever see it through
// the narrow interfaces they declare themselves.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"moneta/internal/core"

	_ "modernc.org/sqlite"
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

// defaultCategorySeeds mirrors the category set every new user starts
// with. Seeded at user creation, not by migration, because categories
// are per-user rows.
var defaultCategorySeeds = []core.Category{
	{Name: "Food & Dining", Icon: "🍔"},
	{Name: "Groceries", Icon: "🛒"},
	{Name: "Transportation", Icon: "🚗"},
	{Name: "Housing & Rent", Icon: "🏠"},
	{Name: "Utilities", Icon: "⚡"},
	{Name: "Entertainment", Icon: "🎬"},
	{Name: "Shopping", Icon: "👕"},
	{Name: "Health", Icon: "💊"},
	{Name: "Education", Icon: "📚"},
	{Name: "Travel", Icon: "✈️"},
	{Name: "Subscriptions", Icon: "📱"},
	{Name: "Fitness", Icon: "🏋️"},
	{Name: "Coffee", Icon: "☕"},
	{Name: "Gifts", Icon: "🎁"},
	{Name: "Salary", Icon: "💼"},
	{Name: "Freelance", Icon: "💻"},
	{Name: "Investments", Icon: "📈"},
	{Name: "Other", Icon: "💰"},
}

// CreateUser inserts a user and seeds the default category set.
func (r *SQLiteRepository) CreateUser(ctx context.Context, name, email string) (core.User, error) {
	user := core.User{ID: uuid.NewString(), Name: name, Email: email}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.User{}, fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`,
		user.ID, user.Name, user.Email); err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	for _, seed := range defaultCategorySeeds {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, user_id, name, icon) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), user.ID, seed.Name, seed.Icon); err != nil {
			return core.User{}, fmt.Errorf("seed category %q: %w", seed.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.User{}, fmt.Errorf("commit create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", user.ID, "categories_seeded", len(defaultCategorySeeds))
	return user, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	var user core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Name, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, userID, name string, currency core.Currency) (core.Account, error) {
	account := core.Account{ID: uuid.NewString(), UserID: userID, Name: name, Currency: currency}
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, name, currency) VALUES (?, ?, ?, ?)`,
		account.ID, account.UserID, account.Name, string(account.Currency)); err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		"id", account.ID, "user_id", userID, "currency", string(currency))
	return account, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, currency FROM accounts
		 WHERE user_id = ? AND deleted_at IS NULL ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var currency string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &currency); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Currency = core.Currency(currency)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	var a core.Account
	var currency string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, currency FROM accounts
		 WHERE id = ? AND deleted_at IS NULL`, id).
		Scan(&a.ID, &a.UserID, &a.Name, &currency)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	a.Currency = core.Currency(currency)
	return a, nil
}

// DeleteAccount soft-deletes so historical summaries stay reproducible.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, userID, name, icon string) (core.Category, error) {
	category := core.Category{ID: uuid.NewString(), UserID: userID, Name: name, Icon: icon}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, icon) VALUES (?, ?, ?, ?)`,
		category.ID, category.UserID, category.Name, category.Icon); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return category, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, icon FROM categories WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
