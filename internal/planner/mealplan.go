// Package planner holds the weekly lunch and dinner plan.
package planner

import (
	"encoding/json"
	"fmt"
)

// Day is one of the seven French weekday names.
type Day string

const (
	Monday    Day = "Lundi"
	Tuesday   Day = "Mardi"
	Wednesday Day = "Mercredi"
	Thursday  Day = "Jeudi"
	Friday    Day = "Vendredi"
	Saturday  Day = "Samedi"
	Sunday    Day = "Dimanche"
)

// Days lists the week in display order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// MealType selects the lunch or dinner slot of a day.
type MealType string

const (
	Lunch  MealType = "lunch"
	Dinner MealType = "dinner"
)

// DayMeals is the content of a single day. Nil means the slot was never set.
type DayMeals struct {
	Lunch  *string `json:"lunch,omitempty"`
	Dinner *string `json:"dinner,omitempty"`
}

// Get returns the slot value, "" when unset.
func (m DayMeals) Get(t MealType) string {
	var p *string
	switch t {
	case Lunch:
		p = m.Lunch
	case Dinner:
		p = m.Dinner
	}
	if p == nil {
		return ""
	}
	return *p
}

// WeeklyPlan is sparse: a day with nothing set is absent.
type WeeklyPlan map[Day]DayMeals

// With returns a copy of p where only the (day, meal) slot changed.
func (p WeeklyPlan) With(day Day, meal MealType, value string) WeeklyPlan {
	next := make(WeeklyPlan, len(p)+1)
	for d, m := range p {
		next[d] = m
	}
	m := next[day]
	v := value
	switch meal {
	case Lunch:
		m.Lunch = &v
	case Dinner:
		m.Dinner = &v
	}
	next[day] = m
	return next
}

// ParseDay accepts a weekday name as listed in Days.
func ParseDay(s string) (Day, error) {
	for _, d := range Days {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day %q", s)
}

// ParseMealType accepts "lunch" or "dinner".
func ParseMealType(s string) (MealType, error) {
	switch MealType(s) {
	case Lunch, Dinner:
		return MealType(s), nil
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// UnmarshalJSON drops unknown days so a hand-edited store cannot inject them.
func (p *WeeklyPlan) UnmarshalJSON(data []byte) error {
	var raw map[string]DayMeals
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(WeeklyPlan, len(raw))
	for k, v := range raw {
		d, err := ParseDay(k)
		if err != nil {
			continue
		}
		out[d] = v
	}
	*p = out
	return nil
}
