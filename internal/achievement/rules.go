// Package achievement grants one-time badges when a user's counters cross
// fixed thresholds.
package achievement

import (
	"fmt"

	"github.com/dukerupert/choreboard/internal/model"
)

// Trigger names the counter a rule is evaluated against.
type Trigger int

const (
	Completions Trigger = iota
	Streak
	Points
	CategoryCompletions
)

func (t Trigger) String() string {
	switch t {
	case Completions:
		return "completions"
	case Streak:
		return "streak"
	case Points:
		return "points"
	case CategoryCompletions:
		return "category_completions"
	default:
		return fmt.Sprintf("Trigger(%d)", int(t))
	}
}

// Rule is one row of the achievement table.
type Rule struct {
	Name        string
	Description string
	Trigger     Trigger
	Threshold   int
	// Category restricts a CategoryCompletions rule to one chore category.
	Category string
}

// Counters is a user's state at evaluation time. Category is the category
// of the chore just completed and may be empty.
type Counters struct {
	Completions         int
	CurrentStreak       int
	Points              int
	Category            string
	CategoryCompletions int
}

// MasteryThreshold is the number of completions in one category that earns
// its mastery badge.
const MasteryThreshold = 20

var masteryNames = map[string]string{
	model.CategoryKitchen:      "Kitchen Master",
	model.CategoryCleaning:     "Cleaning Specialist",
	model.CategoryOrganization: "Organization Expert",
	model.CategoryShopping:     "Shopping Pro",
	model.CategoryLaundry:      "Laundry Champion",
}

// Rules is the ordered achievement table.
var Rules = buildRules()

func buildRules() []Rule {
	rules := []Rule{
		{Name: "First Chore", Description: "Completed your first chore", Trigger: Completions, Threshold: 1},
		{Name: "Ten Chores", Description: "Completed 10 chores", Trigger: Completions, Threshold: 10},
		{Name: "Fifty Chores", Description: "Completed 50 chores", Trigger: Completions, Threshold: 50},
		{Name: "Hundred Chores", Description: "Completed 100 chores", Trigger: Completions, Threshold: 100},
	}
	for _, days := range []int{3, 7, 30} {
		rules = append(rules, Rule{
			Name:        fmt.Sprintf("%d Day Streak", days),
			Description: fmt.Sprintf("Completed chores for %d days in a row", days),
			Trigger:     Streak,
			Threshold:   days,
		})
	}
	for _, pts := range []int{100, 500, 1000, 5000} {
		rules = append(rules, Rule{
			Name:        fmt.Sprintf("%d Points", pts),
			Description: fmt.Sprintf("Earned %d points", pts),
			Trigger:     Points,
			Threshold:   pts,
		})
	}
	for _, category := range model.Categories {
		name, ok := masteryNames[category]
		if !ok {
			continue
		}
		rules = append(rules, Rule{
			Name:        name,
			Description: fmt.Sprintf("Completed %d %s chores", MasteryThreshold, category),
			Trigger:     CategoryCompletions,
			Threshold:   MasteryThreshold,
			Category:    category,
		})
	}
	return rules
}

// Holds reports whether the rule's condition is met by c.
func (r Rule) Holds(c Counters) bool {
	switch r.Trigger {
	case Completions:
		return c.Completions >= r.Threshold
	case Streak:
		return c.CurrentStreak >= r.Threshold
	case Points:
		return c.Points >= r.Threshold
	case CategoryCompletions:
		return c.Category != "" && c.Category == r.Category && c.CategoryCompletions >= r.Threshold
	}
	return false
}

// Evaluate returns the rules that hold for c, in table order. It does not
// know which achievements the user already has.
func Evaluate(rules []Rule, c Counters) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.Holds(c) {
			out = append(out, r)
		}
	}
	return out
}

// HasMastery reports whether category has a mastery badge.
func HasMastery(category string) bool {
	_, ok := masteryNames[category]
	return ok
}
