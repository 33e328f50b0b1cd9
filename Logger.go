package main

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// debugging functions
const always = true // always log

var (
	logger = zap.NewNop()
	sugar  = logger.Sugar()
)

// newLogger builds a zap logger writing to w. Every entry carries run_id.
func newLogger(lc LogConfig, runID string, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	var encoder zapcore.Encoder
	if lc.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core).With(zap.String("run_id", runID)), nil
} // end func newLogger

// setLogger replaces the process logger used by dlog.
func setLogger(l *zap.Logger) {
	logger = l
	sugar = l.Sugar()
}

// dlog logs the formatted message when logthis is true.
func dlog(logthis bool, format string, a ...any) {
	if !logthis {
		return
	}
	sugar.Infof(format, a...)
} // end dlog

// debugOn reports whether the process logger logs at debug level.
func debugOn() bool {
	return logger.Core().Enabled(zapcore.DebugLevel)
}
