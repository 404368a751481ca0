package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/kafelog/kafelog-web/middleware"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var Log = zerolog.Nop()

func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter configures the package and global loggers from LOG_LEVEL and LOG_FORMAT.
func InitWithWriter(w io.Writer) {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || os.Getenv("LOG_LEVEL") == "" {
		level = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if os.Getenv("LOG_FORMAT") == "json" {
		l = zerolog.New(w).With().Timestamp().Str("service", "kafelog-web").Logger().Level(level)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger().Level(level)
	}

	Log = l
	zlog.Logger = l
}

// Ctx returns a logger with Request-ID context if available
func Ctx(ctx context.Context) *zerolog.Logger {
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		l := Log.With().Str("request_id", reqID).Logger()
		return &l
	}
	return &Log
}
