package utils

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SetupLogger builds a console logger writing to w at the named level
// (DEBUG, INFO, WARN, ERROR or FATAL, any case).
func SetupLogger(level string, w io.Writer) (*zap.Logger, zap.AtomicLevel, error) {
	al := zap.NewAtomicLevel()
	switch strings.ToUpper(level) {
	case "DEBUG":
		al.SetLevel(zap.DebugLevel)
	case "INFO", "":
		al.SetLevel(zap.InfoLevel)
	case "WARN":
		al.SetLevel(zap.WarnLevel)
	case "ERROR":
		al.SetLevel(zap.ErrorLevel)
	case "FATAL":
		al.SetLevel(zap.FatalLevel)
	default:
		return nil, al, errors.Errorf("invalid log level %q", level)
	}
	ec := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(zapcore.AddSync(w)), al)
	return zap.New(core), al, nil
}
