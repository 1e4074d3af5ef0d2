// Package logging builds the relay's package-level structured logger:
// JSON-encoded, written through a rotating file sink.
package logging

import (
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pongrelay/internal/config"
)

// Logger is the relay's package-level structured logger. It is
// rebuilt by Init once config.Global is populated; before that it is
// a usable no-op logger so early startup code never has to nil-check
// it.
var Logger = zap.NewNop()

var levelMap = map[string]zapcore.Level{
	"debug":  zapcore.DebugLevel,
	"info":   zapcore.InfoLevel,
	"warn":   zapcore.WarnLevel,
	"error":  zapcore.ErrorLevel,
	"dpanic": zapcore.DPanicLevel,
	"panic":  zapcore.PanicLevel,
	"fatal":  zapcore.FatalLevel,
}

// Init rebuilds Logger from the current config.Global settings.
// Call it once after config.Load/Reload, before serving connections.
func Init() {
	level, ok := levelMap[config.Global.Log.Level]
	if !ok {
		level = zapcore.InfoLevel
	}
	priority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= level
	})

	hook := &lumberjack.Logger{
		Filename:   config.Global.Log.Path,
		MaxSize:    1024,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	files := zapcore.AddSync(hook)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)

	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, files, priority),
	)

	Logger = zap.New(core, zap.AddCaller(), zap.Development())
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}
