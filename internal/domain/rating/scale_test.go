package rating_test

import (
	"testing"

	"github.com/okian/rival/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScaler(t *testing.T) {
	Convey("Given the default scaler with a custom anchor", t, func() {
		s := rating.NewScaler(rating.WithAnchor("anchor", 1114))

		Convey("When the anchor competitor is present", func() {
			scaled := s.Apply([]float64{0, 0.5}, []string{"m1", "anchor"})

			Convey("Then the anchor lands exactly on its target", func() {
				So(scaled[1], ShouldEqual, 1114)
			})

			Convey("Then the whole vector is shifted uniformly", func() {
				// raw*400+1000 gives [1000, 1200]; shift is -86.
				So(scaled[0], ShouldEqual, 914)
			})
		})

		Convey("When the anchor competitor is absent", func() {
			scaled := s.Apply([]float64{0, 0.5}, []string{"m1", "m2"})

			Convey("Then the shift is skipped without error", func() {
				So(scaled[0], ShouldEqual, 1000)
				So(scaled[1], ShouldEqual, 1200)
			})
		})
	})

	Convey("Given an identity scaler with the anchor already at target", t, func() {
		s := rating.NewScaler(
			rating.WithScale(1),
			rating.WithInitRating(0),
			rating.WithAnchor("anchor", 1114),
		)
		ratings := []float64{900, 1114, 1300}
		names := []string{"m1", "anchor", "m2"}

		Convey("When applying the transform twice", func() {
			once := s.Apply(ratings, names)
			twice := s.Apply(once, names)

			Convey("Then nothing changes", func() {
				So(once, ShouldResemble, ratings)
				So(twice, ShouldResemble, ratings)
			})
		})
	})

	Convey("Given a bootstrap ensemble", t, func() {
		s := rating.NewScaler(rating.WithAnchor("anchor", 1114))
		ensemble := [][]float64{
			{0, 0.5},
			{0.25, 0.25},
		}
		names := []string{"m1", "anchor"}

		Convey("When rescaling the ensemble", func() {
			scaled := s.ApplyEnsemble(ensemble, names)

			Convey("Then each trial is anchored independently but uniformly", func() {
				So(scaled[0][1], ShouldEqual, 1114)
				So(scaled[1][1], ShouldEqual, 1114)
				So(scaled[0][0], ShouldEqual, 914)
				So(scaled[1][0], ShouldEqual, 1114)
			})

			Convey("Then the input ensemble is not mutated", func() {
				So(ensemble[0][0], ShouldEqual, 0)
			})
		})
	})
}
