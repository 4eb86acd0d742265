package planner

import (
	"context"
	"fmt"

	"miam-planner/internal/store"
)

// Planner persists the WeeklyPlan under store.KeyPlan.
type Planner struct {
	store store.Store
}

// New creates a Planner.
func New(s store.Store) *Planner {
	return &Planner{store: s}
}

// Get loads the plan; an empty store yields an empty plan.
func (p *Planner) Get(ctx context.Context) (WeeklyPlan, error) {
	plan := WeeklyPlan{}
	if err := store.Load(ctx, p.store, store.KeyPlan, &plan); err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return plan, nil
}

// UpdateMeal merges one slot into the stored plan and writes it back.
func (p *Planner) UpdateMeal(ctx context.Context, day Day, meal MealType, value string) (WeeklyPlan, error) {
	if _, err := ParseDay(string(day)); err != nil {
		return nil, err
	}
	if _, err := ParseMealType(string(meal)); err != nil {
		return nil, err
	}

	plan, err := p.Get(ctx)
	if err != nil {
		return nil, err
	}
	next := plan.With(day, meal, value)
	if err := store.Save(ctx, p.store, store.KeyPlan, next); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}
	return next, nil
}
