package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/codrutul/roster/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleInput(name string, class model.Class, level int) model.CharacterInput {
	return model.CharacterInput{
		Name: name, Class: class, Level: level,
		HP: 1500, Damage: 150, Armor: 40, MagicResistance: 30, CriticalChance: 10,
		ImageURL: "https://example.test/" + name + ".jpg", Description: name + " of the roster",
	}
}

// runBackendContract exercises the behavior every Backend must share.
func runBackendContract(t *testing.T, name string, open func(t *testing.T) Backend) {
	Convey("Given an empty "+name+" store", t, func() {
		ctx := context.Background()
		s := open(t)

		Convey("When listing", func() {
			list, err := s.List(ctx)

			Convey("Then it is empty but not nil", func() {
				So(err, ShouldBeNil)
				So(list, ShouldNotBeNil)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When creating characters", func() {
			a, err := s.Create(ctx, sampleInput("Aria", model.ClassMage, 12))
			So(err, ShouldBeNil)
			b, err := s.Create(ctx, sampleInput("Bron", model.ClassWarrior, 20))
			So(err, ShouldBeNil)

			Convey("Then each gets a distinct id and list keeps insertion order", func() {
				So(a.ID, ShouldNotBeBlank)
				So(a.ID, ShouldNotEqual, b.ID)
				So(a.CreatedAt.IsZero(), ShouldBeFalse)

				list, err := s.List(ctx)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 2)
				So(list[0].ID, ShouldEqual, a.ID)
				So(list[1].ID, ShouldEqual, b.ID)
				So(list[0].CharacterInput, ShouldResemble, a.CharacterInput)

				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})

			Convey("And get returns the stored record", func() {
				got, err := s.Get(ctx, b.ID)
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "Bron")
				So(got.Class, ShouldEqual, model.ClassWarrior)
			})

			Convey("And updating replaces every field but the id and creation time", func() {
				in := sampleInput("Aria Reborn", model.ClassPaladin, 30)
				got, err := s.Update(ctx, a.ID, in)

				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, a.ID)
				So(got.CharacterInput, ShouldResemble, in)
				So(got.CreatedAt.Equal(a.CreatedAt), ShouldBeTrue)

				stored, err := s.Get(ctx, a.ID)
				So(err, ShouldBeNil)
				So(stored.Name, ShouldEqual, "Aria Reborn")
			})

			Convey("And updating an unknown id is not found and changes nothing", func() {
				_, err := s.Update(ctx, "missing", sampleInput("Ghost", model.ClassRogue, 1))
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)

				list, _ := s.List(ctx)
				So(len(list), ShouldEqual, 2)
				So(list[0].Name, ShouldEqual, "Aria")
			})

			Convey("And deleting removes exactly that record", func() {
				So(s.Delete(ctx, a.ID), ShouldBeNil)

				list, _ := s.List(ctx)
				So(len(list), ShouldEqual, 1)
				So(list[0].ID, ShouldEqual, b.ID)

				_, err := s.Get(ctx, a.ID)
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(errors.Is(s.Delete(ctx, a.ID), ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When creating characters concurrently", func() {
			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = s.Create(ctx, sampleInput(fmt.Sprintf("c%d", i), model.ClassRogue, i))
				}()
			}
			wg.Wait()

			Convey("Then none are lost", func() {
				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 20)
			})
		})

		Convey("When storing a game session", func() {
			gs, err := s.CreateSession(ctx, model.GameSession{
				CharacterID: "c-1", CharacterName: "Aria", Position: model.Position{X: 3, Y: 17},
			})

			Convey("Then it can be read back", func() {
				So(err, ShouldBeNil)
				So(gs.ID, ShouldNotBeBlank)

				got, err := s.GetSession(ctx, gs.ID)
				So(err, ShouldBeNil)
				So(got.CharacterName, ShouldEqual, "Aria")
				So(got.Position, ShouldResemble, model.Position{X: 3, Y: 17})
				So(got.CreatedAt.Equal(gs.CreatedAt), ShouldBeTrue)
			})

			Convey("And unknown sessions are not found", func() {
				_, err := s.GetSession(ctx, "nope")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
