package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level AtomicLevel
	utc   bool
	out   *appenderSet
}

// appenderSet is shared by a logger and every sublogger made from it.
type appenderSet struct {
	mu        sync.RWMutex
	appenders []Appender
}

func newImpl(name string, level Level, utc bool, appenders ...Appender) *impl {
	return &impl{
		name:  name,
		level: NewAtomicLevelAt(level),
		utc:   utc,
		out:   &appenderSet{appenders: appenders},
	}
}

func (set *appenderSet) add(appender Appender) {
	set.mu.Lock()
	defer set.mu.Unlock()
	set.appenders = append(set.appenders, appender)
}

// write hands the entry to every appender. A failing appender does not stop the others, and its
// error goes to stderr since there is nowhere better to log it.
func (set *appenderSet) write(entry zapcore.Entry, fields []zapcore.Field) {
	set.mu.RLock()
	defer set.mu.RUnlock()
	for _, appender := range set.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, "error writing log entry:", err)
		}
	}
}

func (set *appenderSet) sync() error {
	set.mu.RLock()
	defer set.mu.RUnlock()
	var err error
	for _, appender := range set.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

func (imp *impl) AddAppender(appender Appender) {
	imp.out.add(appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

// Sublogger starts at the parent's current level. Changing either level afterwards does not
// affect the other.
func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{
		name:  name,
		level: NewAtomicLevelAt(imp.level.Get()),
		utc:   imp.utc,
		out:   imp.out,
	}
}

func (imp *impl) Sync() error {
	return imp.out.sync()
}

func (imp *impl) enabled(level Level) bool {
	return level >= imp.level.Get()
}

// write must be called straight from the exported logging methods so the reported caller is
// the code that logged.
func (imp *impl) write(level Level, msg string, keysAndValues []interface{}) {
	now := time.Now()
	if imp.utc {
		now = now.UTC()
	}
	imp.out.write(zapcore.Entry{
		LoggerName: imp.name,
		Level:      level.AsZap(),
		Time:       now,
		Message:    msg,
		Caller:     loggingCaller(),
	}, toFields(keysAndValues))
}

// toFields pairs every key with the value after it. A trailing key with no value is kept, with
// an error as its value.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// loggingCaller reports the caller of an exported logging method, three frames up.
func loggingCaller() zapcore.EntryCaller {
	pc, file, line, ok := runtime.Caller(3)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}

func (imp *impl) Debug(args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.write(DEBUG, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.write(DEBUG, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.write(DEBUG, msg, keysAndValues)
	}
}

func (imp *impl) Info(args ...interface{}) {
	if imp.enabled(INFO) {
		imp.write(INFO, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Infof(template string, args ...interface{}) {
	if imp.enabled(INFO) {
		imp.write(INFO, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	if imp.enabled(INFO) {
		imp.write(INFO, msg, keysAndValues)
	}
}

func (imp *impl) Warn(args ...interface{}) {
	if imp.enabled(WARN) {
		imp.write(WARN, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	if imp.enabled(WARN) {
		imp.write(WARN, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(WARN) {
		imp.write(WARN, msg, keysAndValues)
	}
}

func (imp *impl) Error(args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.write(ERROR, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.write(ERROR, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(ERROR) {
		imp.write(ERROR, msg, keysAndValues)
	}
}
