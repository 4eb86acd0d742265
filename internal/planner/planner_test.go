package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miam-planner/internal/store"
)

func TestUpdateMeal(t *testing.T) {
	ctx := context.Background()

	t.Run("SparseDay", func(t *testing.T) {
		s := store.NewMemoryStore()
		p := New(s)

		plan, err := p.UpdateMeal(ctx, Monday, Dinner, "Soupe")
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.Nil(t, plan[Monday].Lunch)
		assert.Equal(t, "Soupe", plan[Monday].Get(Dinner))

		raw, ok, err := s.Get(ctx, store.KeyPlan)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"Lundi":{"dinner":"Soupe"}}`, string(raw))
	})

	t.Run("MergePreservesOtherSlots", func(t *testing.T) {
		p := New(store.NewMemoryStore())

		_, err := p.UpdateMeal(ctx, Monday, Dinner, "Soupe")
		require.NoError(t, err)
		_, err = p.UpdateMeal(ctx, Monday, Lunch, "Salade César")
		require.NoError(t, err)
		_, err = p.UpdateMeal(ctx, Friday, Lunch, "Poisson")
		require.NoError(t, err)

		plan, err := p.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Soupe", plan[Monday].Get(Dinner))
		assert.Equal(t, "Salade César", plan[Monday].Get(Lunch))
		assert.Equal(t, "Poisson", plan[Friday].Get(Lunch))
		_, present := plan[Tuesday]
		assert.False(t, present)
	})

	t.Run("RejectsUnknownDay", func(t *testing.T) {
		p := New(store.NewMemoryStore())
		_, err := p.UpdateMeal(ctx, Day("Funday"), Lunch, "x")
		assert.Error(t, err)
		_, err = p.UpdateMeal(ctx, Monday, MealType("brunch"), "x")
		assert.Error(t, err)
	})

	t.Run("WithDoesNotMutate", func(t *testing.T) {
		base := WeeklyPlan{}.With(Sunday, Lunch, "Rôti")
		next := base.With(Sunday, Dinner, "Restes")
		assert.Nil(t, base[Sunday].Dinner)
		assert.Equal(t, "Restes", next[Sunday].Get(Dinner))
	})
}

func TestWeeklyPlanUnmarshalDropsUnknownDays(t *testing.T) {
	var plan WeeklyPlan
	require.NoError(t, plan.UnmarshalJSON([]byte(`{"Lundi":{"lunch":"Pâtes"},"Someday":{"lunch":"x"}}`)))
	assert.Len(t, plan, 1)
	assert.Equal(t, "Pâtes", plan[Monday].Get(Lunch))
}
