package logging

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/edvin/grantdesk/internal/config"
)

// ServiceName is attached to every log line.
const ServiceName = "grantdesk-api"

// Switch holds the minimum level and the environment stamped on the loggers
// NewLogger returns. Both can change while those loggers are in use.
type Switch struct {
	level atomic.Int32
	env   atomic.Value
}

func (s *Switch) SetLevel(level zerolog.Level) { s.level.Store(int32(level)) }

func (s *Switch) Level() zerolog.Level { return zerolog.Level(s.level.Load()) }

func (s *Switch) Environment() config.Environment {
	env, _ := s.env.Load().(config.Environment)
	return env
}

// Apply takes the environment and the log level of its bundle. An unknown
// level name keeps the current level.
func (s *Switch) Apply(env config.Environment, settings config.Settings) {
	s.env.Store(env)
	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil || settings.LogLevel == "" {
		return
	}
	s.SetLevel(level)
}

func (s *Switch) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str("environment", string(s.Environment()))
}

// levelWriter drops events below the switch level.
type levelWriter struct {
	w  io.Writer
	sw *Switch
}

func (lw levelWriter) Write(p []byte) (int, error) {
	return lw.w.Write(p)
}

func (lw levelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < lw.sw.Level() {
		return len(p), nil
	}
	return lw.w.Write(p)
}

// NewLogger creates a structured zerolog.Logger writing to stdout, and the
// switch that controls it. The starting level comes from LOG_LEVEL, or from
// the embedded environment bundle when LOG_LEVEL is unset. Registering
// Switch.Apply with the resolver hands control to the resolved bundles.
func NewLogger(cfg *config.Config) (zerolog.Logger, *Switch) {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Config) (zerolog.Logger, *Switch) {
	sw := &Switch{}
	sw.SetLevel(zerolog.InfoLevel)

	levelName := cfg.LogLevel
	if levelName == "" {
		levelName = config.DefaultBundles()[cfg.Environment].LogLevel
	}
	sw.Apply(cfg.Environment, config.Settings{LogLevel: levelName})

	logger := zerolog.New(levelWriter{w: w, sw: sw}).
		Level(zerolog.TraceLevel).
		Hook(sw).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()

	return logger, sw
}
