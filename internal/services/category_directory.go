package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expensify/internal/cache"
	"expensify/internal/core"
	"expensify/internal/ledger"
)

const allCategoriesKey = "\x00all"

// CategoryDirectory resolves category IDs for display. Categories are owned
// by the ledger; the directory only caches reads, so a rename or recolor is
// visible everywhere once the entry expires or Invalidate is called.
type CategoryDirectory struct {
	reader ledger.CategoryReader
	byID   cache.Cache[core.Category]
	all    cache.Cache[[]core.Category]
}

func NewCategoryDirectory(reader ledger.CategoryReader, size int, ttl time.Duration) *CategoryDirectory {
	return &CategoryDirectory{
		reader: reader,
		byID:   cache.NewLRUCache[core.Category](size, ttl),
		all:    cache.NewLRUCache[[]core.Category](1, ttl),
	}
}

// List returns every category, from cache when fresh.
func (d *CategoryDirectory) List(ctx context.Context) ([]core.Category, error) {
	if cats, ok := d.all.Get(allCategoriesKey); ok {
		return cats, nil
	}
	cats, err := d.reader.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	// Categories removed from the ledger must not linger in byID.
	expired := d.byID.CleanExpired()
	d.all.Set(allCategoriesKey, cats)
	for _, c := range cats {
		d.byID.Set(c.ID, c)
	}
	slog.DebugContext(ctx, "Category directory refreshed", "count", len(cats), "expired", expired)
	return cats, nil
}

// Lookup resolves a category by ID. Unknown IDs fail with core.ErrNotFound.
func (d *CategoryDirectory) Lookup(ctx context.Context, id string) (core.Category, error) {
	if c, ok := d.byID.Get(id); ok {
		return c, nil
	}
	cats, err := d.List(ctx)
	if err != nil {
		return core.Category{}, err
	}
	for _, c := range cats {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("lookup %q: %w", id, core.ErrCategoryMissing)
}

// Name returns the display name for id, falling back to the ID itself.
func (d *CategoryDirectory) Name(ctx context.Context, id string) string {
	c, err := d.Lookup(ctx, id)
	if err != nil {
		return id
	}
	return c.Name
}

// Invalidate drops cached entries so the next read hits the ledger.
func (d *CategoryDirectory) Invalidate() {
	d.byID.Clear()
	d.all.Clear()
}
