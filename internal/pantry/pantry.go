// Package pantry manages the ingredient inventory.
package pantry

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"miam-planner/internal/shared"
	"miam-planner/internal/store"
)

// DefaultQuantity is used when an item is added without a quantity.
const DefaultQuantity = "1"

var validate = validator.New()

// Item is one pantry entry.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"max=100"`
	Quantity string `json:"quantity" validate:"max=50"`
	Category string `json:"category,omitempty"`
}

// Pantry reads and rewrites the whole item list under store.KeyPantry.
type Pantry struct {
	store store.Store
	ids   *shared.IDGenerator
}

// New creates a Pantry.
func New(s store.Store, ids *shared.IDGenerator) *Pantry {
	return &Pantry{store: s, ids: ids}
}

// List returns the items in insertion order.
func (p *Pantry) List(ctx context.Context) ([]Item, error) {
	items := []Item{}
	if err := store.Load(ctx, p.store, store.KeyPantry, &items); err != nil {
		return nil, fmt.Errorf("failed to load pantry: %w", err)
	}
	return items, nil
}

// Add appends an item. A blank name is a no-op and returns nil; a blank
// quantity becomes DefaultQuantity.
func (p *Pantry) Add(ctx context.Context, name, quantity string) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	quantity = strings.TrimSpace(quantity)
	if quantity == "" {
		quantity = DefaultQuantity
	}

	items, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	item := Item{ID: p.ids.NewID(), Name: name, Quantity: quantity}
	if err := validate.Struct(item); err != nil {
		return nil, fmt.Errorf("invalid pantry item: %w", err)
	}
	if err := p.save(ctx, append(items, item)); err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove deletes the item with id. Other items keep their ids and order.
func (p *Pantry) Remove(ctx context.Context, id string) error {
	items, err := p.List(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	return p.save(ctx, kept)
}

// Names returns the item names, the context injected into recipe searches.
func (p *Pantry) Names(ctx context.Context) ([]string, error) {
	items, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names, nil
}

func (p *Pantry) save(ctx context.Context, items []Item) error {
	if err := store.Save(ctx, p.store, store.KeyPantry, items); err != nil {
		return fmt.Errorf("failed to save pantry: %w", err)
	}
	return nil
}
