package offline

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
)

// ExportSummary counts what one export wrote
type ExportSummary struct {
	Users      int       `json:"users"`
	StripeKeys int       `json:"stripe_keys"`
	Products   int       `json:"products"`
	Recipes    int       `json:"recipes"`
	Tabs       int       `json:"tabs"`
	Sales      int       `json:"sales"`
	ExportedAt time.Time `json:"exported_at"`
}

// Exporter copies the authoritative store into the mirror. The copy is
// one-way and replaces the mirror's contents in a single transaction.
type Exporter struct {
	source repositories.ExportSource
	store  *Store
	now    func() time.Time
}

func NewExporter(source repositories.ExportSource, store *Store) *Exporter {
	return &Exporter{source: source, store: store, now: time.Now}
}

type snapshot struct {
	users    []*models.User
	keys     []*models.StripeKey
	products []*models.Product
	recipes  []*models.Recipe
	tabs     []*models.Tab
	sales    []*models.Sale
}

// Run reads everything first so a source failure leaves the mirror untouched
func (e *Exporter) Run(ctx context.Context) (*ExportSummary, error) {
	snap, err := e.read(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := e.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"sale_items", "sales", "tab_items", "tabs", "recipe_ingredients", "recipes", "products", "stripe_keys", "users"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	writers := []func(context.Context, *sql.Tx, *snapshot) error{
		writeUsers,
		writeStripeKeys,
		writeProducts,
		writeRecipes,
		writeTabs,
		writeSales,
	}
	for _, write := range writers {
		if err := write(ctx, tx, snap); err != nil {
			return nil, err
		}
	}

	summary := &ExportSummary{
		Users:      len(snap.users),
		StripeKeys: len(snap.keys),
		Products:   len(snap.products),
		Recipes:    len(snap.recipes),
		Tabs:       len(snap.tabs),
		Sales:      len(snap.sales),
		ExportedAt: e.now().UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO export_runs (exported_at, products, recipes, tabs, sales, users) VALUES (?, ?, ?, ?, ?, ?)`,
		formatTime(summary.ExportedAt), summary.Products, summary.Recipes, summary.Tabs, summary.Sales, summary.Users,
	); err != nil {
		return nil, fmt.Errorf("record export run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit export: %w", err)
	}

	log.Printf("✅ Offline export complete: %d products, %d recipes, %d tabs, %d sales, %d users",
		summary.Products, summary.Recipes, summary.Tabs, summary.Sales, summary.Users)
	return summary, nil
}

func (e *Exporter) read(ctx context.Context) (*snapshot, error) {
	var (
		snap snapshot
		err  error
	)
	if snap.users, err = e.source.AllUsers(ctx); err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	if snap.keys, err = e.source.AllStripeKeys(ctx); err != nil {
		return nil, fmt.Errorf("read stripe keys: %w", err)
	}
	if snap.products, err = e.source.AllProducts(ctx); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	if snap.recipes, err = e.source.AllRecipes(ctx); err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}
	if snap.tabs, err = e.source.AllTabs(ctx); err != nil {
		return nil, fmt.Errorf("read tabs: %w", err)
	}
	if snap.sales, err = e.source.AllSales(ctx); err != nil {
		return nil, fmt.Errorf("read sales: %w", err)
	}
	return &snap, nil
}

// Passwords stay behind; the column is nullable in the mirror.
func writeUsers(ctx context.Context, tx *sql.Tx, snap *snapshot) error {
	for _, u := range snap.users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, email, password, role, is_active, created_at) VALUES (?, ?, ?, NULL, ?, ?, ?)`,
			u.ID, u.Username, u.Email, u.Role, u.IsActive, formatTime(u.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert user %s: %w", u.ID, err)
		}
	}
	return nil
}

// Secret keys stay behind.
func writeStripeKeys(ctx context.Context, tx *sql.Tx, snap *snapshot) error {
	for _, k := range snap.keys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stripe_keys (user_id, secret_key, publishable_key, updated_at) VALUES (?, NULL, ?, ?)`,
			k.UserID, k.PublishableKey, formatTime(k.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert stripe key %s: %w", k.UserID, err)
		}
	}
	return nil
}

func writeProducts(ctx context.Context, tx *sql.Tx, snap *snapshot) error {
	for _, p := range snap.products {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, name, category, unit, barcode, quantity, min_quantity, price, cost, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Category, p.Unit, nullString(p.Barcode), p.Quantity, p.MinQuantity,
			p.Price.StringFixed(2), p.Cost.StringFixed(2), formatTime(p.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}
	return nil
}

func writeRecipes(ctx context.Context, tx *sql.Tx, snap *snapshot) error {
	for _, r := range snap.recipes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (id, name, category, price, updated_at) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Category, r.Price.StringFixed(2), formatTime(r.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert recipe %s: %w", r.ID, err)
		}
		for _, ing := range r.Ingredients {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO recipe_ingredients (recipe_id, product_id, quantity) VALUES (?, ?, ?)`,
				r.ID, ing.ProductID, ing.Quantity,
			); err != nil {
				return fmt.Errorf("insert ingredient for recipe %s: %w", r.ID, err)
			}
		}
	}
	return nil
}

func writeTabs(ctx context.Context, tx *sql.Tx, snap *snapshot) error {
	for _, t := range snap.tabs {
		var closedAt interface{}
		if t.ClosedAt != nil {
			closedAt = formatTime(*t.ClosedAt)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tabs (id, name, status, opened_by, closed_by, closed_at, payment_method, payment_intent_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Name, t.Status, t.OpenedBy, t.ClosedBy, closedAt, t.PaymentMethod, t.PaymentIntentID, formatTime(t.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert tab %s: %w", t.ID, err)
		}
		for _, it := range t.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tab_items (id, tab_id, recipe_id, product_id, name, quantity, unit_price) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				it.ID, t.ID, nullString(it.RecipeID), nullString(it.ProductID), it.Name, it.Quantity, it.UnitPrice.StringFixed(2),
			); err != nil {
				return fmt.Errorf("insert item for tab %s: %w", t.ID, err)
			}
		}
	}
	return nil
}

func writeSales(ctx context.Context, tx *sql.Tx, snap *snapshot) error {
	for _, s := range snap.sales {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sales (id, tab_id, total, currency, payment_method, payment_intent_id, sold_by, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, nullString(s.TabID), s.Total.StringFixed(2), s.Currency, s.PaymentMethod, s.PaymentIntentID, s.SoldBy, formatTime(s.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert sale %s: %w", s.ID, err)
		}
		for _, it := range s.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sale_items (sale_id, recipe_id, product_id, name, quantity, unit_price) VALUES (?, ?, ?, ?, ?, ?)`,
				s.ID, nullString(it.RecipeID), nullString(it.ProductID), it.Name, it.Quantity, it.UnitPrice.StringFixed(2),
			); err != nil {
				return fmt.Errorf("insert item for sale %s: %w", s.ID, err)
			}
		}
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
