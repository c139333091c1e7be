package stats

import (
	"testing"

	"github.com/codrutul/roster/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func char(class model.Class, level, hp, damage, armor int) model.Character {
	return model.Character{CharacterInput: model.CharacterInput{
		Name: "x", Class: class, Level: level, HP: hp, Damage: damage, Armor: armor,
	}}
}

func TestCompute(t *testing.T) {
	Convey("Given two warriors and a mage", t, func() {
		roster := []model.Character{
			char(model.ClassWarrior, 10, 2000, 100, 50),
			char(model.ClassMage, 15, 1500, 250, 30),
			char(model.ClassWarrior, 20, 3000, 200, 70),
		}

		Convey("When computing summaries", func() {
			got := Compute(roster)

			Convey("Then each class has one averaged entry in first-seen order", func() {
				So(got, ShouldResemble, []model.ClassSummary{
					{Name: model.ClassWarrior, Count: 2, AvgLevel: 15, AvgHP: 2500, AvgDamage: 150, AvgArmor: 60},
					{Name: model.ClassMage, Count: 1, AvgLevel: 15, AvgHP: 1500, AvgDamage: 250, AvgArmor: 30},
				})
			})

			Convey("And the counts add up to the roster size", func() {
				total := 0
				for _, s := range got {
					total += s.Count
				}
				So(total, ShouldEqual, len(roster))
			})
		})
	})

	Convey("Given a roster where the mage comes first", t, func() {
		got := Compute([]model.Character{
			char(model.ClassMage, 1, 1, 1, 1),
			char(model.ClassPaladin, 1, 1, 1, 1),
			char(model.ClassWarrior, 1, 1, 1, 1),
		})

		Convey("Then the order is not alphabetical or canonical", func() {
			So(got[0].Name, ShouldEqual, model.ClassMage)
			So(got[1].Name, ShouldEqual, model.ClassPaladin)
			So(got[2].Name, ShouldEqual, model.ClassWarrior)
		})
	})

	Convey("Given averages with a half", t, func() {
		got := Compute([]model.Character{
			char(model.ClassRogue, 10, 1, 1, 1),
			char(model.ClassRogue, 11, 2, 2, 2),
		})

		Convey("Then rounding goes half away from zero", func() {
			So(got[0].AvgLevel, ShouldEqual, 11)
			So(got[0].AvgHP, ShouldEqual, 2)
		})
	})

	Convey("Given an empty roster", t, func() {
		got := Compute(nil)

		Convey("Then the result is an empty, non-nil slice", func() {
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})
	})

	Convey("Given the last member of a class is gone", t, func() {
		roster := []model.Character{
			char(model.ClassRogue, 5, 100, 10, 1),
			char(model.ClassPaladin, 26, 2200, 160, 65),
		}
		got := Compute(roster[1:])

		Convey("Then no zero-count entry is emitted", func() {
			So(len(got), ShouldEqual, 1)
			So(got[0].Name, ShouldEqual, model.ClassPaladin)
		})
	})
}

func TestCounts(t *testing.T) {
	Convey("Given summaries", t, func() {
		counts := Counts([]model.ClassSummary{{Name: model.ClassMage, Count: 3}, {Name: model.ClassRogue, Count: 1}})

		Convey("Then counts are keyed by class name", func() {
			So(counts, ShouldResemble, map[string]int{"Mage": 3, "Rogue": 1})
		})
	})
}
