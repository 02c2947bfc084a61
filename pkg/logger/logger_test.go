package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	err = Init(WithJSON(true))
	if err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerOutput(t *testing.T) {
	convey.Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		convey.So(Init(WithWriter(&buf)), convey.ShouldBeNil)
		ctx := context.Background()

		convey.Convey("When logging with fields", func() {
			Get().Info(ctx, "solved", String("status", "Optimal"), Int("nodes", 3),
				Float64("points", 71.5), Bool("warm", true), Duration("took", time.Second),
				Error(errors.New("boom")))

			convey.Convey("Then the fields and the caller are emitted", func() {
				out := buf.String()
				convey.So(out, convey.ShouldContainSubstring, "msg=solved")
				convey.So(out, convey.ShouldContainSubstring, "status=Optimal")
				convey.So(out, convey.ShouldContainSubstring, "nodes=3")
				convey.So(out, convey.ShouldContainSubstring, "warm=true")
				convey.So(out, convey.ShouldContainSubstring, "error=boom")
				convey.So(out, convey.ShouldContainSubstring, "logger_test.go")
			})
		})

		convey.Convey("When the level filters debug", func() {
			convey.So(SetLevelString("warn"), convey.ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			Get().Debug(ctx, "hidden")
			Get().Info(ctx, "hidden too")
			Get().Warn(ctx, "shown")

			convey.Convey("Then only warn is written", func() {
				convey.So(buf.String(), convey.ShouldNotContainSubstring, "hidden")
				convey.So(buf.String(), convey.ShouldContainSubstring, "shown")
			})
		})

		convey.Convey("When using a named logger", func() {
			Named("squad").Info(ctx, "grouped", String("k", "v"))

			convey.Convey("Then attributes are grouped under the name", func() {
				convey.So(buf.String(), convey.ShouldContainSubstring, "squad.k=v")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	convey.Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "info", "", "warn", "WARNING", " error "} {
			convey.So(SetLevelString(lvl), convey.ShouldBeNil)
		}
		convey.So(SetLevelString("verbose"), convey.ShouldNotBeNil)
		_ = SetLevelString("info")
	})
}
