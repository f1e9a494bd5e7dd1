package synth_test

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rival/internal/domain/model"
	"github.com/okian/rival/internal/synth"
)

func TestGenerate(t *testing.T) {
	Convey("Given a generator with default strengths", t, func() {
		g := synth.New(synth.WithRand(rand.New(rand.NewSource(3))))

		Convey("When battles are generated", func() {
			battles := g.Generate(500)

			Convey("Then every record is well formed", func() {
				So(battles, ShouldHaveLength, 500)
				for i, b := range battles {
					So(b.Winner.Recognized(), ShouldBeTrue)
					So(b.ModelA, ShouldNotEqual, b.ModelB)
					So(b.Judge, ShouldNotBeEmpty)
					So(b.Anony, ShouldBeTrue)
					if i > 0 {
						So(b.TStamp, ShouldBeGreaterThan, battles[i-1].TStamp)
					}
				}
			})

			Convey("Then style metadata is present on both sides", func() {
				for _, b := range battles[:10] {
					So(b.Metadata["sum_assistant_a_tokens"].Scalar(), ShouldBeGreaterThan, 0)
					So(b.Metadata["sum_assistant_b_tokens"].Scalar(), ShouldBeGreaterThan, 0)
				}
			})

			Convey("Then the strongest competitor beats the weakest more often than not", func() {
				wins, losses := 0, 0
				for _, b := range battles {
					switch {
					case b.ModelA == "synth-strong" && b.ModelB == "synth-weak":
						if b.Winner == model.OutcomeModelA {
							wins++
						} else if b.Winner == model.OutcomeModelB {
							losses++
						}
					case b.ModelA == "synth-weak" && b.ModelB == "synth-strong":
						if b.Winner == model.OutcomeModelB {
							wins++
						} else if b.Winner == model.OutcomeModelA {
							losses++
						}
					}
				}
				So(wins, ShouldBeGreaterThan, losses)
			})
		})

		Convey("When the tie probability is zero", func() {
			g := synth.New(
				synth.WithRand(rand.New(rand.NewSource(4))),
				synth.WithTieProbability(0),
			)
			battles := g.Generate(200)

			Convey("Then no battle is tied", func() {
				for _, b := range battles {
					So(b.Winner.IsTie(), ShouldBeFalse)
				}
			})
		})
	})

	Convey("Given custom strengths and languages", t, func() {
		g := synth.New(
			synth.WithRand(rand.New(rand.NewSource(5))),
			synth.WithStrengths(map[string]float64{"x": 1100, "y": 900}),
			synth.WithLanguages([]string{"Chinese"}),
			synth.WithJudges(3),
		)

		Convey("When battles are generated", func() {
			battles := g.Generate(50)

			Convey("Then the configured pools are used", func() {
				So(g.Models(), ShouldResemble, []string{"x", "y"})
				judges := map[string]bool{}
				for _, b := range battles {
					So(b.Language, ShouldEqual, "Chinese")
					judges[b.Judge] = true
				}
				So(len(judges), ShouldBeLessThanOrEqualTo, 3)
			})
		})
	})
}
