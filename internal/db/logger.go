package db

import (
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// zapWriter sends gorm's formatted lines to zap. At Warn level gorm only
// prints slow queries and failed statements.
type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...any) {
	w.log.Warnf(format, args...)
}

func newGormLogger(log *zap.Logger) gormlogger.Interface {
	return gormlogger.New(zapWriter{log: log.Named("gorm").WithOptions(zap.AddCallerSkip(3)).Sugar()}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
