// Package shopping manages the checklist of items to buy.
package shopping

import (
	"context"
	"fmt"
	"strings"

	"miam-planner/internal/shared"
	"miam-planner/internal/store"
)

// Item is one entry of the shopping list.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

// List persists the shopping list under store.KeyShopping. Every mutation
// reads the current list and writes the whole list back.
type List struct {
	store store.Store
	ids   *shared.IDGenerator
}

// NewList creates a shopping list service.
func NewList(s store.Store, ids *shared.IDGenerator) *List {
	return &List{store: s, ids: ids}
}

// Items returns the list in insertion order.
func (l *List) Items(ctx context.Context) ([]Item, error) {
	items := []Item{}
	if err := store.Load(ctx, l.store, store.KeyShopping, &items); err != nil {
		return nil, fmt.Errorf("failed to load shopping list: %w", err)
	}
	return items, nil
}

// Add appends an unchecked item. A blank name is a no-op.
func (l *List) Add(ctx context.Context, name string) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	items, err := l.Items(ctx)
	if err != nil {
		return nil, err
	}
	item := Item{ID: l.ids.NewID(), Name: name}
	if err := l.save(ctx, append(items, item)); err != nil {
		return nil, err
	}
	return &item, nil
}

// Toggle flips the checked flag of the item with id.
func (l *List) Toggle(ctx context.Context, id string) error {
	items, err := l.Items(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			items[i].Checked = !items[i].Checked
		}
	}
	return l.save(ctx, items)
}

// Remove deletes the item with id.
func (l *List) Remove(ctx context.Context, id string) error {
	return l.filter(ctx, func(it Item) bool { return it.ID != id })
}

// ClearChecked deletes every checked item.
func (l *List) ClearChecked(ctx context.Context) error {
	return l.filter(ctx, func(it Item) bool { return !it.Checked })
}

// Remaining counts the unchecked items.
func (l *List) Remaining(ctx context.Context) (int, error) {
	items, err := l.Items(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		if !it.Checked {
			n++
		}
	}
	return n, nil
}

func (l *List) filter(ctx context.Context, keep func(Item) bool) error {
	items, err := l.Items(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if keep(it) {
			kept = append(kept, it)
		}
	}
	return l.save(ctx, kept)
}

func (l *List) save(ctx context.Context, items []Item) error {
	if err := store.Save(ctx, l.store, store.KeyShopping, items); err != nil {
		return fmt.Errorf("failed to save shopping list: %w", err)
	}
	return nil
}
