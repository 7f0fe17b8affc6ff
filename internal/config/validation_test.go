package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValidate(t *testing.T) {
	Convey("Validate", t, func() {
		cfg := DefaultConfig()

		Convey("accepts the default configuration", func() {
			So(Validate(cfg), ShouldBeNil)
		})

		Convey("rejects an unknown authority mode", func() {
			cfg.Dispatcher.Mode = AuthorityMode("bogus")
			err := Validate(cfg)
			So(err, ShouldNotBeNil)
			verrs, ok := err.(ValidationErrors)
			So(ok, ShouldBeTrue)
			So(verrs, ShouldHaveLength, 1)
			So(verrs[0].Field, ShouldEqual, "dispatcher.mode")
		})

		Convey("rejects a non-positive tick interval", func() {
			cfg.Dispatcher.TickInterval = 0
			So(Validate(cfg), ShouldNotBeNil)
		})

		Convey("rejects a non-positive max drain", func() {
			cfg.Dispatcher.MaxDrainPerTick = 0
			So(Validate(cfg), ShouldNotBeNil)
		})

		Convey("rejects a non-positive joining timeout", func() {
			cfg.Dispatcher.JoiningTimeout = -time.Second
			So(Validate(cfg), ShouldNotBeNil)
		})

		Convey("rejects a non-positive snapshot request rate", func() {
			cfg.Dispatcher.SnapshotRequestRate = 0
			So(Validate(cfg), ShouldNotBeNil)
		})

		Convey("rejects a negative epsilon", func() {
			cfg.Dispatcher.Epsilon = -0.1
			So(Validate(cfg), ShouldNotBeNil)
		})

		Convey("accepts a zero epsilon", func() {
			cfg.Dispatcher.Epsilon = 0
			So(Validate(cfg), ShouldBeNil)
		})

		Convey("rejects an unknown logging level", func() {
			cfg.Logging.Level = "verbose"
			So(Validate(cfg), ShouldNotBeNil)
		})

		Convey("rejects an empty version", func() {
			cfg.Version = ""
			So(Validate(cfg), ShouldNotBeNil)
		})

		Convey("aggregates every violation", func() {
			cfg.Dispatcher.TickInterval = 0
			cfg.Dispatcher.MaxDrainPerTick = 0
			cfg.Logging.Level = "verbose"
			err := Validate(cfg)
			verrs, ok := err.(ValidationErrors)
			So(ok, ShouldBeTrue)
			So(len(verrs), ShouldEqual, 3)
		})
	})
}

func TestValidationErrorsError(t *testing.T) {
	Convey("ValidationErrors.Error", t, func() {
		Convey("is empty for a nil set", func() {
			var errs ValidationErrors
			So(errs.Error(), ShouldEqual, "")
		})

		Convey("joins every message", func() {
			errs := ValidationErrors{
				{Field: "a", Message: "bad a"},
				{Field: "b", Message: "bad b"},
			}
			So(errs.Error(), ShouldContainSubstring, "bad a")
			So(errs.Error(), ShouldContainSubstring, "bad b")
		})
	})
}
