package rating_test

import (
	"math"
	"testing"

	"github.com/okian/rival/internal/domain/encode"
	"github.com/okian/rival/internal/domain/model"
	"github.com/okian/rival/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func repeatBattles(a, b string, winner model.Outcome, n int) []model.Battle {
	out := make([]model.Battle, n)
	for i := range out {
		out[i] = model.Battle{ModelA: a, ModelB: b, Winner: winner}
	}
	return out
}

func TestBTFitter(t *testing.T) {
	Convey("Given a transitive synthetic dataset (A beats B beats C)", t, func() {
		var battles []model.Battle
		battles = append(battles, repeatBattles("A", "B", model.OutcomeModelA, 100)...)
		battles = append(battles, repeatBattles("B", "C", model.OutcomeModelA, 100)...)

		ds, err := encode.Battles(battles)
		So(err, ShouldBeNil)

		Convey("When fitting", func() {
			res, err := rating.NewBTFitter().Fit(ds)
			So(err, ShouldBeNil)

			Convey("Then strengths recover the expected ordering", func() {
				ia, _ := ds.Registry.Index("A")
				ib, _ := ds.Registry.Index("B")
				ic, _ := ds.Registry.Index("C")
				So(res.Ratings[ia], ShouldBeGreaterThan, res.Ratings[ib])
				So(res.Ratings[ib], ShouldBeGreaterThan, res.Ratings[ic])
			})
		})
	})

	Convey("Given a dataset of nothing but ties between A and B", t, func() {
		battles := repeatBattles("A", "B", model.OutcomeTie, 40)
		ds, err := encode.Battles(battles)
		So(err, ShouldBeNil)

		Convey("When fitting", func() {
			res, err := rating.NewBTFitter().Fit(ds)
			So(err, ShouldBeNil)

			Convey("Then the two strengths are equal within tolerance", func() {
				So(math.Abs(res.Ratings[0]-res.Ratings[1]), ShouldBeLessThan, 1e-6)
			})
		})
	})

	Convey("Given a balanced head-to-head dataset", t, func() {
		var battles []model.Battle
		battles = append(battles, repeatBattles("A", "B", model.OutcomeModelA, 60)...)
		battles = append(battles, repeatBattles("A", "B", model.OutcomeModelB, 40)...)
		battles = append(battles, repeatBattles("A", "B", model.OutcomeTie, 20)...)

		ds, err := encode.Battles(battles)
		So(err, ShouldBeNil)

		Convey("When fitting the deduplicated dataset and an undeduplicated copy", func() {
			deduped, err := rating.NewBTFitter().Fit(ds)
			So(err, ShouldBeNil)

			// Rebuild the same matchups with one row per battle, weight 1.
			flat := &encode.Dataset{Registry: ds.Registry, NumBattles: ds.NumBattles}
			for i := range ds.MatchupA {
				for n := 0; n < int(ds.Weights[i]); n++ {
					flat.MatchupA = append(flat.MatchupA, ds.MatchupA[i])
					flat.MatchupB = append(flat.MatchupB, ds.MatchupB[i])
					flat.Outcomes = append(flat.Outcomes, ds.Outcomes[i])
					flat.Weights = append(flat.Weights, 1)
				}
			}
			unweighted, err := rating.NewBTFitter().Fit(flat)
			So(err, ShouldBeNil)

			Convey("Then deduplication does not change the fitted result", func() {
				for i := range deduped.Ratings {
					So(math.Abs(deduped.Ratings[i]-unweighted.Ratings[i]), ShouldBeLessThan, 1e-5)
				}
			})
		})
	})

	Convey("Given a weight vector of the wrong length", t, func() {
		ds, err := encode.Battles(repeatBattles("A", "B", model.OutcomeModelA, 3))
		So(err, ShouldBeNil)

		Convey("Then FitWeights rejects it", func() {
			_, err := rating.NewBTFitter().FitWeights(ds, []float64{1, 2, 3, 4})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given an empty dataset", t, func() {
		ds, err := encode.Battles(nil)
		So(err, ShouldBeNil)

		Convey("Then the fit trivially succeeds", func() {
			res, err := rating.NewBTFitter().Fit(ds)
			So(err, ShouldBeNil)
			So(res.Ratings, ShouldBeEmpty)
			So(res.Converged, ShouldBeTrue)
		})
	})
}
