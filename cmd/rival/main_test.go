package main

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/rival/internal/app"
	"github.com/okian/rival/internal/domain/bootstrap"
	"github.com/okian/rival/internal/synth"
)

func TestReadBattles(t *testing.T) {
	convey.Convey("Given a synthetic battles file", t, func() {
		battles := synth.New(synth.WithRand(rand.New(rand.NewSource(9)))).Generate(25)
		dir := t.TempDir()
		path := filepath.Join(dir, "battles.json")

		data, err := json.Marshal(battles)
		convey.So(err, convey.ShouldBeNil)
		convey.So(os.WriteFile(path, data, outputPermission), convey.ShouldBeNil)

		convey.Convey("When the file is read back", func() {
			loaded, err := readBattles(path)

			convey.Convey("Then every record survives the round trip", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(loaded, convey.ShouldHaveLength, 25)
				for i := range loaded {
					convey.So(loaded[i].ModelA, convey.ShouldEqual, battles[i].ModelA)
					convey.So(loaded[i].Winner, convey.ShouldEqual, battles[i].Winner)
					convey.So(loaded[i].Metadata["sum_assistant_a_tokens"].Scalar(),
						convey.ShouldEqual, battles[i].Metadata["sum_assistant_a_tokens"].Scalar())
				}
			})
		})

		convey.Convey("When a missing file is read", func() {
			_, err := readBattles(filepath.Join(dir, "missing.json"))

			convey.Convey("Then the error is surfaced", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the file is not valid JSON", func() {
			bad := filepath.Join(dir, "bad.json")
			convey.So(os.WriteFile(bad, []byte("not json"), outputPermission), convey.ShouldBeNil)
			_, err := readBattles(bad)

			convey.Convey("Then the error is surfaced", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestWriteReports(t *testing.T) {
	convey.Convey("Given a report payload", t, func() {
		reports := map[string]*app.Report{
			"full": {
				Category:     "full",
				RatingSystem: "bt",
				NumBattles:   10,
				FinalRatings: map[string]float64{"alpha": 1100},
				Summaries: []bootstrap.Summary{
					{Model: "alpha", Median: 1100, Q025: 1050, Q975: 1150, Variance: 25},
				},
			},
		}
		path := filepath.Join(t.TempDir(), "results.json")

		convey.Convey("When the payload is written", func() {
			err := writeReports(path, reports)

			convey.Convey("Then the file exists and parses", func() {
				convey.So(err, convey.ShouldBeNil)
				data, readErr := os.ReadFile(path)
				convey.So(readErr, convey.ShouldBeNil)
				var loaded map[string]*app.Report
				convey.So(json.Unmarshal(data, &loaded), convey.ShouldBeNil)
				convey.So(loaded["full"].NumBattles, convey.ShouldEqual, 10)
				convey.So(loaded["full"].FinalRatings["alpha"], convey.ShouldEqual, 1100)
			})
		})
	})
}

func TestLastUpdateDate(t *testing.T) {
	convey.Convey("Given reports with different update times", t, func() {
		reports := map[string]*app.Report{
			"full":    {LastUpdated: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
			"english": {LastUpdated: time.Date(2025, 7, 15, 8, 0, 0, 0, time.UTC)},
		}

		convey.Convey("When the filename date is derived", func() {
			date := lastUpdateDate(reports)

			convey.Convey("Then the newest timestamp wins", func() {
				convey.So(date, convey.ShouldEqual, "20250715")
			})
		})

		convey.Convey("When no report has a timestamp", func() {
			date := lastUpdateDate(map[string]*app.Report{"full": {}})

			convey.Convey("Then today's date is used", func() {
				convey.So(date, convey.ShouldHaveLength, 8)
			})
		})
	})
}
