package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestLevelFromString(t *testing.T) {
	for inp, want := range map[string]Level{"debug": DEBUG, "INFO": INFO, "Warn": WARN, "warning": WARN, "error": ERROR} {
		level, err := LevelFromString(inp)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, want)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, level.UnmarshalJSON([]byte(`"error"`)), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)
	out, err := WARN.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"warn"`)
	test.That(t, INFO.AsZap(), test.ShouldEqual, zapcore.InfoLevel)
}

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("moved", "node", "forklift", "x", 1.5)
	logger.SetLevel(WARN)
	logger.Info("dropped")
	logger.Warnf("kept %d", 1)
	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.All()[0].ContextMap()["node"], test.ShouldEqual, "forklift")
	test.That(t, filepath.Base(logs.All()[0].Caller.File), test.ShouldEqual, "logging_test.go")
	test.That(t, logs.FilterMessage("kept 1").Len(), test.ShouldEqual, 1)

	ctx := EnableDebugMode(context.Background(), "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, len(GetName(ctx)), test.ShouldEqual, 6)
	logger.CDebugw(ctx, "forced", "node", "crate")
	forced := logs.FilterMessage("forced").All()
	test.That(t, len(forced), test.ShouldEqual, 1)
	test.That(t, forced[0].ContextMap()["debug_key"], test.ShouldEqual, GetName(ctx))
	test.That(t, forced[0].ContextMap()["node"], test.ShouldEqual, "crate")
	logger.CDebugw(context.Background(), "not forced")
	test.That(t, logs.FilterMessage("not forced").Len(), test.ShouldEqual, 0)
	test.That(t, IsDebugMode(context.Background()), test.ShouldBeFalse)

	logger.Warnw("unpaired", "node")
	unpaired := logs.FilterMessage("unpaired").All()
	test.That(t, len(unpaired), test.ShouldEqual, 1)
	test.That(t, unpaired[0].ContextMap()["node"], test.ShouldNotBeNil)

	sub := logger.Sublogger("scene")
	sub.SetLevel(DEBUG)
	sub.Errorw("failed", "err", "boom")
	entry := logs.FilterMessage("failed").All()[0]
	test.That(t, entry.LoggerName, test.ShouldEqual, "scene")
	test.That(t, sub.Sublogger("tick").(*impl).name, test.ShouldEqual, "scene.tick")

	logger.AsZap().Warn("through zap")
	test.That(t, logs.FilterMessage("through zap").Len(), test.ShouldEqual, 1)
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestWriterAndFileAppenders(t *testing.T) {
	var buf bytes.Buffer
	logger := newImpl("web", DEBUG, true)
	logger.AddAppender(NewWriterAppender(zapcore.AddSync(&buf)))
	logger.Infow("client connected", "id", "abc")
	test.That(t, buf.String(), test.ShouldContainSubstring, "INFO")
	test.That(t, buf.String(), test.ShouldContainSubstring, "web")
	test.That(t, buf.String(), test.ShouldContainSubstring, `"id": "abc"`)

	path := filepath.Join(t.TempDir(), "scenemotion.log")
	fileLogger, err := NewLoggerFromConfig("replay", Config{Level: "debug", Path: path, MaxSizeMB: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fileLogger.GetLevel(), test.ShouldEqual, DEBUG)
	fileLogger.Debug("to file")
	//nolint:errcheck
	fileLogger.Sync()
	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "to file")

	_, err = NewLoggerFromConfig("bad", Config{Level: "nope"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGlobalLogger(t *testing.T) {
	prev := Global()
	defer ReplaceGlobal(prev)
	logger := NewTestLogger(t)
	ReplaceGlobal(logger)
	test.That(t, Global(), test.ShouldEqual, logger)
}
