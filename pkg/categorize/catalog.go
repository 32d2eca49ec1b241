package categorize

import (
	"context"
	"errors"
	"strings"

	"fintrack/pkg/ledger"
)

var (
	ErrEmptyName         = errors.New("category name required")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrProtectedCategory = errors.New("cannot delete the default category")
	ErrCategoryNotFound  = errors.New("category not found")
)

// Catalog manages a user's category names. Renames and deletes cascade to
// expenses, budgets and learned mappings through the store.
type Catalog struct {
	store ledger.CategoryStore
}

func NewCatalog(store ledger.CategoryStore) *Catalog {
	return &Catalog{store: store}
}

// List returns the user's categories, seeding the defaults on first use.
func (c *Catalog) List(ctx context.Context, userID uint) ([]ledger.CategoryRow, error) {
	return c.store.ListCategories(ctx, userID)
}

// Names is List reduced to names.
func (c *Catalog) Names(ctx context.Context, userID uint) ([]string, error) {
	rows, err := c.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out, nil
}

func (c *Catalog) Add(ctx context.Context, userID uint, name string) (ledger.CategoryRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ledger.CategoryRow{}, ErrEmptyName
	}
	// make sure defaults exist before the first custom name lands
	if _, err := c.store.ListCategories(ctx, userID); err != nil {
		return ledger.CategoryRow{}, err
	}
	row, err := c.store.CreateCategory(ctx, userID, name)
	if errors.Is(err, ledger.ErrDuplicate) {
		return ledger.CategoryRow{}, ErrDuplicateCategory
	}
	return row, err
}

func (c *Catalog) Rename(ctx context.Context, userID, id uint, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}
	return translate(c.store.RenameCategory(ctx, userID, id, newName))
}

// Delete reassigns everything filed under the category to the default one.
// The default category itself cannot be deleted.
func (c *Catalog) Delete(ctx context.Context, userID, id uint) error {
	row, err := c.store.GetCategory(ctx, userID, id)
	if err != nil {
		return translate(err)
	}
	if row.Name == ledger.DefaultCategory {
		return ErrProtectedCategory
	}
	return translate(c.store.DeleteCategory(ctx, userID, id, ledger.DefaultCategory))
}

func translate(err error) error {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, ledger.ErrDuplicate):
		return ErrDuplicateCategory
	}
	return err
}
