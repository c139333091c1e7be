// Package stats aggregates a roster into per-class summaries.
package stats

import (
	"math"

	"github.com/codrutul/roster/internal/domain/model"
)

type accumulator struct {
	count                    int
	level, hp, damage, armor int64
}

// Compute groups characters by class and averages level, hp, damage and armor.
// Averages are rounded half away from zero. Summaries are ordered by the first
// appearance of each class in chars; classes without members are omitted.
// The result is never nil.
func Compute(chars []model.Character) []model.ClassSummary {
	acc := make(map[model.Class]*accumulator, len(model.Classes))
	order := make([]model.Class, 0, len(model.Classes))
	for i := range chars {
		c := &chars[i]
		a, ok := acc[c.Class]
		if !ok {
			a = &accumulator{}
			acc[c.Class] = a
			order = append(order, c.Class)
		}
		a.count++
		a.level += int64(c.Level)
		a.hp += int64(c.HP)
		a.damage += int64(c.Damage)
		a.armor += int64(c.Armor)
	}

	out := make([]model.ClassSummary, 0, len(order))
	for _, class := range order {
		a := acc[class]
		out = append(out, model.ClassSummary{
			Name:      class,
			Count:     a.count,
			AvgLevel:  avg(a.level, a.count),
			AvgHP:     avg(a.hp, a.count),
			AvgDamage: avg(a.damage, a.count),
			AvgArmor:  avg(a.armor, a.count),
		})
	}
	return out
}

func avg(sum int64, n int) int {
	return int(math.Round(float64(sum) / float64(n)))
}

// Counts returns the member count per class name of a summary set.
func Counts(summaries []model.ClassSummary) map[string]int {
	out := make(map[string]int, len(summaries))
	for _, s := range summaries {
		out[string(s.Name)] = s.Count
	}
	return out
}
