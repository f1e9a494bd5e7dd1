package rating_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/rival/internal/domain/encode"
	"github.com/okian/rival/internal/domain/model"
	"github.com/okian/rival/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestElo(t *testing.T) {
	Convey("Given a fresh Elo updater", t, func() {
		elo := rating.NewElo()

		Convey("When A beats B from equal ratings", func() {
			ratings, err := elo.Compute([]model.Battle{
				{ModelA: "a", ModelB: "b", Winner: model.OutcomeModelA, TStamp: 1},
			})
			So(err, ShouldBeNil)

			Convey("Then the winner gains K/2 and the loser loses K/2", func() {
				So(ratings["a"], ShouldAlmostEqual, 1002, 1e-9)
				So(ratings["b"], ShouldAlmostEqual, 998, 1e-9)
			})
		})

		Convey("When A and B tie from equal ratings", func() {
			ratings, err := elo.Compute([]model.Battle{
				{ModelA: "a", ModelB: "b", Winner: model.OutcomeTie, TStamp: 1},
			})
			So(err, ShouldBeNil)

			Convey("Then neither rating moves", func() {
				So(ratings["a"], ShouldAlmostEqual, 1000, 1e-9)
				So(ratings["b"], ShouldAlmostEqual, 1000, 1e-9)
			})
		})

		Convey("When the same multiset of battles arrives in different orders", func() {
			winThenLoss := []model.Battle{
				{ModelA: "a", ModelB: "b", Winner: model.OutcomeModelA, TStamp: 1},
				{ModelA: "a", ModelB: "b", Winner: model.OutcomeModelB, TStamp: 2},
			}
			lossThenWin := []model.Battle{
				{ModelA: "a", ModelB: "b", Winner: model.OutcomeModelB, TStamp: 1},
				{ModelA: "a", ModelB: "b", Winner: model.OutcomeModelA, TStamp: 2},
			}

			r1, err := elo.Compute(winThenLoss)
			So(err, ShouldBeNil)
			r2, err := elo.Compute(lossThenWin)
			So(err, ShouldBeNil)

			Convey("Then the sequential update is order-sensitive", func() {
				So(math.Abs(r1["a"]-r2["a"]), ShouldBeGreaterThan, 1e-9)
			})
		})

		Convey("When a battle carries a corrupt outcome", func() {
			_, err := elo.Compute([]model.Battle{
				{ModelA: "a", ModelB: "b", Winner: model.Outcome("bogus"), TStamp: 1},
			})

			Convey("Then the whole pass aborts", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, encode.ErrUnrecognizedOutcome), ShouldBeTrue)
			})
		})
	})

	Convey("Given a custom K factor", t, func() {
		elo := rating.NewElo(rating.WithKFactor(32))

		Convey("When A beats B from equal ratings", func() {
			ratings, err := elo.Compute([]model.Battle{
				{ModelA: "a", ModelB: "b", Winner: model.OutcomeModelA, TStamp: 1},
			})
			So(err, ShouldBeNil)
			So(ratings["a"], ShouldAlmostEqual, 1016, 1e-9)
		})
	})
}
