package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a usable logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with a nil writer", func() {
			err := InitWithWriter(nil, FormatText)

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := InitWithWriter(&bytes.Buffer{}, Format("xml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "xml")
			})
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, FormatJSON), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "generated", String("k", "v"), Int("n", 3), Error(errors.New("boom")))

			Convey("Then the entry carries message, fields and source", func() {
				var entry map[string]any
				So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
				So(entry["msg"], ShouldEqual, "generated")
				So(entry["k"], ShouldEqual, "v")
				So(entry["n"], ShouldEqual, float64(3))
				So(entry["error"], ShouldEqual, "boom")
				So(entry["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging below the configured level", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then only the warning is written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Convey("When using a named logger with bound fields", func() {
			Named("engine").With(String("job", "j1")).Info(ctx, "done", Int("n", 1))

			Convey("Then the fields are grouped under the name", func() {
				So(buf.String(), ShouldContainSubstring, `"engine"`)
				So(buf.String(), ShouldContainSubstring, `"job":"j1"`)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)

		for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}

		Convey("Then an unknown level is rejected", func() {
			err := SetLevelString("verbose")
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "verbose"), ShouldBeTrue)
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given the nop logger", t, func() {
		l := Nop()

		Convey("Then every call is a no-op", func() {
			So(func() {
				l.Info(context.Background(), "x")
				l.Named("a").With(String("b", "c")).Error(context.Background(), "y")
			}, ShouldNotPanic)
		})
	})
}
