package logging

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// callerSkip is the stack depth from callerOf to the code that called a Logger method. Every public
// method must call emit directly for it to hold.
const callerSkip = 3

type impl struct {
	name  string
	level AtomicLevel
	inUTC bool

	appenders []Appender
}

func newImpl(name string, level Level, inUTC bool, appenders ...Appender) *impl {
	return &impl{name: name, level: NewAtomicLevelAt(level), inUTC: inUTC, appenders: appenders}
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

// Sublogger copies the level at the time of the call; later level changes do not propagate.
func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return newImpl(name, imp.level.Get(), imp.inUTC, imp.appenders...)
}

func (imp *impl) Sync() error {
	var err error
	for _, appender := range imp.appenders {
		multierr.AppendInto(&err, appender.Sync())
	}
	return err
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	var cores []zapcore.Core
	for _, appender := range imp.appenders {
		if core, ok := appender.(zapcore.Core); ok {
			cores = append(cores, core)
		}
	}
	tee := zapcore.NewTee(cores...)
	if leveled, err := zapcore.NewIncreaseLevelCore(tee, imp.level.Get().AsZap()); err == nil {
		tee = leveled
	}
	return zap.New(tee).Sugar().Named(imp.name)
}

// emit hands one entry to every appender when level is enabled or force is set. message is only
// evaluated for entries that are written.
func (imp *impl) emit(level Level, force bool, message func() string, keysAndValues []interface{}) {
	if !force && level < imp.level.Get() {
		return
	}
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    message(),
		Caller:     callerOf(callerSkip),
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	fields := pairsToFields(keysAndValues)
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// pairsToFields turns alternating keys and values into zap fields. A trailing key with no value is
// kept with an error in its place.
func pairsToFields(keysAndValues []interface{}) []zapcore.Field {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for len(keysAndValues) > 0 {
		key := fmt.Sprint(keysAndValues[0])
		if len(keysAndValues) == 1 {
			fields = append(fields, zap.Any(key, errors.Errorf("no value logged for key %q", key)))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[1]))
		keysAndValues = keysAndValues[2:]
	}
	return fields
}

func sprint(args []interface{}) func() string {
	return func() string { return fmt.Sprint(args...) }
}

func sprintf(template string, args []interface{}) func() string {
	return func() string { return fmt.Sprintf(template, args...) }
}

func constant(msg string) func() string {
	return func() string { return msg }
}

func (imp *impl) Debug(args ...interface{}) {
	imp.emit(DEBUG, false, sprint(args), nil)
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.emit(DEBUG, false, sprintf(template, args), nil)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.emit(DEBUG, false, constant(msg), keysAndValues)
}

// CDebugw logs at debug level, and also below the logger's level when ctx carries debug mode. Forced
// entries are tagged with the context's debug key.
func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	forced := IsDebugMode(ctx)
	if forced {
		keysAndValues = append(keysAndValues[:len(keysAndValues):len(keysAndValues)], "debug_key", GetName(ctx))
	}
	imp.emit(DEBUG, forced, constant(msg), keysAndValues)
}

func (imp *impl) Info(args ...interface{}) {
	imp.emit(INFO, false, sprint(args), nil)
}

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.emit(INFO, false, sprintf(template, args), nil)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.emit(INFO, false, constant(msg), keysAndValues)
}

func (imp *impl) Warn(args ...interface{}) {
	imp.emit(WARN, false, sprint(args), nil)
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.emit(WARN, false, sprintf(template, args), nil)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.emit(WARN, false, constant(msg), keysAndValues)
}

func (imp *impl) Error(args ...interface{}) {
	imp.emit(ERROR, false, sprint(args), nil)
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.emit(ERROR, false, sprintf(template, args), nil)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.emit(ERROR, false, constant(msg), keysAndValues)
}

// callerOf reports the frame skip levels above itself.
func callerOf(skip int) zapcore.EntryCaller {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
