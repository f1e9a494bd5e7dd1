package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/rival/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given default configuration", t, func() {
		cfg := config.New()

		Convey("Then the rating parameters should match the conventional scale", func() {
			So(cfg.RatingSystem, ShouldEqual, config.RatingSystemBT)
			So(cfg.Scale, ShouldEqual, 400)
			So(cfg.Base, ShouldEqual, 10)
			So(cfg.InitRating, ShouldEqual, 1000)
			So(cfg.KFactor, ShouldEqual, 4)
			So(cfg.AnchorRating, ShouldEqual, 1114)
			So(cfg.NumBootstrap, ShouldEqual, 100)
			So(cfg.OutlierAlpha, ShouldEqual, 0.05)
			So(cfg.OutlierMaxVotes, ShouldEqual, 100)
			So(cfg.OutlierMinVotes, ShouldEqual, 5)
			So(cfg.Categories, ShouldResemble, []string{"full"})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		for _, key := range []string{"RIVAL_CONFIG", "RIVAL_NUM_BOOTSTRAP", "RIVAL_RATING_SYSTEM", "RIVAL_LOG_LEVEL", "RIVAL_STYLE_CONTROL"} {
			So(os.Unsetenv(key), ShouldBeNil)
		}

		Convey("When loading with no file and no env", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.NumBootstrap, ShouldEqual, 100)
		})

		Convey("When env vars override defaults", func() {
			So(os.Setenv("RIVAL_NUM_BOOTSTRAP", "250"), ShouldBeNil)
			So(os.Setenv("RIVAL_LOG_LEVEL", "debug"), ShouldBeNil)
			defer func() {
				_ = os.Unsetenv("RIVAL_NUM_BOOTSTRAP")
				_ = os.Unsetenv("RIVAL_LOG_LEVEL")
			}()

			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.NumBootstrap, ShouldEqual, 250)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})

		Convey("When a YAML file sets values and env overrides one of them", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "rival.yaml")
			yaml := "num_bootstrap: 500\nrating_system: elo\nseed: 7\n"
			So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
			So(os.Setenv("RIVAL_CONFIG", path), ShouldBeNil)
			So(os.Setenv("RIVAL_NUM_BOOTSTRAP", "750"), ShouldBeNil)
			defer func() {
				_ = os.Unsetenv("RIVAL_CONFIG")
				_ = os.Unsetenv("RIVAL_NUM_BOOTSTRAP")
			}()

			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.NumBootstrap, ShouldEqual, 750) // env wins over file
			So(cfg.RatingSystem, ShouldEqual, config.RatingSystemElo)
			So(cfg.Seed, ShouldEqual, 7)
		})

		Convey("When the rating system is unknown", func() {
			So(os.Setenv("RIVAL_RATING_SYSTEM", "trueskill"), ShouldBeNil)
			defer func() { _ = os.Unsetenv("RIVAL_RATING_SYSTEM") }()

			_, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When style control is combined with the elo system", func() {
			So(os.Setenv("RIVAL_RATING_SYSTEM", "elo"), ShouldBeNil)
			So(os.Setenv("RIVAL_STYLE_CONTROL", "true"), ShouldBeNil)
			defer func() {
				_ = os.Unsetenv("RIVAL_RATING_SYSTEM")
				_ = os.Unsetenv("RIVAL_STYLE_CONTROL")
			}()

			_, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the config file is missing", func() {
			So(os.Setenv("RIVAL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml")), ShouldBeNil)
			defer func() { _ = os.Unsetenv("RIVAL_CONFIG") }()

			_, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}
