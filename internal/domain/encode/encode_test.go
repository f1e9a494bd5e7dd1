package encode_test

import (
	"errors"
	"testing"

	"github.com/okian/rival/internal/domain/encode"
	"github.com/okian/rival/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given battles over three competitors", t, func() {
		battles := []model.Battle{
			{ModelA: "b", ModelB: "a", Winner: model.OutcomeModelA},
			{ModelA: "a", ModelB: "c", Winner: model.OutcomeModelB},
		}

		reg := encode.NewRegistry(battles)

		Convey("Then indices follow first appearance", func() {
			So(reg.Len(), ShouldEqual, 3)
			So(reg.Name(0), ShouldEqual, "b")
			So(reg.Name(1), ShouldEqual, "a")
			So(reg.Name(2), ShouldEqual, "c")
		})

		Convey("Then the mapping is a bijection", func() {
			for _, name := range reg.Names() {
				i, ok := reg.Index(name)
				So(ok, ShouldBeTrue)
				So(reg.Name(i), ShouldEqual, name)
			}
			_, ok := reg.Index("nope")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestBattles(t *testing.T) {
	Convey("Given a battle list with repeated matchups", t, func() {
		battles := []model.Battle{
			{ModelA: "a", ModelB: "b", Winner: model.OutcomeModelA},
			{ModelA: "a", ModelB: "b", Winner: model.OutcomeModelA},
			{ModelA: "a", ModelB: "b", Winner: model.OutcomeModelB},
			{ModelA: "a", ModelB: "b", Winner: model.OutcomeTie},
			{ModelA: "a", ModelB: "b", Winner: model.OutcomeTieBothBad},
			{ModelA: "b", ModelB: "a", Winner: model.OutcomeModelA},
		}

		ds, err := encode.Battles(battles)
		So(err, ShouldBeNil)

		Convey("Then the weight sum equals the battle count", func() {
			So(ds.TotalWeight(), ShouldEqual, float64(len(battles)))
			So(ds.NumBattles, ShouldEqual, len(battles))
		})

		Convey("Then identical triples are aggregated", func() {
			// (a,b,A-win) x2, (a,b,B-win), (a,b,tie) x2 merged, (b,a,A-win).
			So(ds.Weights, ShouldHaveLength, 4)
		})

		Convey("Then both tie variants share one encoded triple", func() {
			ties := 0
			for i, y := range ds.Outcomes {
				if y == 0.5 {
					ties++
					So(ds.Weights[i], ShouldEqual, 2)
				}
			}
			So(ties, ShouldEqual, 1)
		})

		Convey("Then outcome encoding is relative to record order", func() {
			// The (b,a,A-win) battle must not merge with (a,b,B-win).
			reg := ds.Registry
			ia, _ := reg.Index("a")
			ib, _ := reg.Index("b")
			var reversed bool
			for i := range ds.Outcomes {
				if ds.MatchupA[i] == ib && ds.MatchupB[i] == ia && ds.Outcomes[i] == 1 {
					reversed = true
					So(ds.Weights[i], ShouldEqual, 1)
				}
			}
			So(reversed, ShouldBeTrue)
		})
	})

	Convey("Given a battle with a corrupt outcome tag", t, func() {
		battles := []model.Battle{
			{ModelA: "a", ModelB: "b", Winner: model.OutcomeModelA},
			{ModelA: "a", ModelB: "b", Winner: model.Outcome("model_c")},
		}

		Convey("Then encoding aborts with ErrUnrecognizedOutcome", func() {
			_, err := encode.Battles(battles)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, encode.ErrUnrecognizedOutcome), ShouldBeTrue)
		})
	})
}
