package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	logger.Debugf("solving %d links", 3)
	logger.Warnw("unknown joint in update", "position", 2, "name", "J9")
	test.That(t, logs.Len(), test.ShouldEqual, 2)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	test.That(t, warns, test.ShouldHaveLength, 1)
	test.That(t, warns[0].Message, test.ShouldEqual, "unknown joint in update")
	test.That(t, warns[0].ContextMap()["name"], test.ShouldEqual, "J9")
	test.That(t, warns[0].ContextMap()["position"], test.ShouldEqual, int64(2))
	test.That(t, warns[0].Caller.Defined, test.ShouldBeTrue)
	test.That(t, warns[0].Caller.File, test.ShouldEndWith, "impl_test.go")
}

func TestLevels(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)

	logger.Info("dropped")
	logger.Error("kept")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].Level, test.ShouldEqual, zapcore.ErrorLevel)

	level, err := LevelFromString("DEBUG")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, DEBUG)
	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, INFO.AsZap(), test.ShouldEqual, zapcore.InfoLevel)
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("resolver").Sublogger("links")
	sub.Infow("tracked", "link", "forearm")
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "resolver.links")

	// the zap logger shares the same appenders
	logger.AsZap().Warnw("from zap", "err", errors.New("boom"))
	test.That(t, logs.FilterMessage("from zap").Len(), test.ShouldEqual, 1)
	test.That(t, logger.Sync(), test.ShouldBeNil)
}
