// Package nlog is the relay's logging facade: every other package logs
// through here instead of importing zerolog directly, so the wire format
// and verbosity gating stay centralized.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package nlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	log  zerolog.Logger
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
		With().Timestamp().Logger()
}

// SetOutput redirects all subsequent logging - tests point this at a buffer.
func SetOutput(w io.Writer) {
	log = zerolog.New(w).With().Timestamp().Logger()
}

// SetJSON switches to structured JSON output, used in production where logs
// are shipped to an aggregator rather than read from a terminal.
func SetJSON() {
	once.Do(func() {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	})
}

func Infoln(args ...any)             { log.Info().Msg(sprint(args...)) }
func Infof(format string, args ...any) { log.Info().Msgf(format, args...) }
func Warnln(args ...any)             { log.Warn().Msg(sprint(args...)) }
func Warnf(format string, args ...any) { log.Warn().Msgf(format, args...) }
func Errorln(args ...any)            { log.Error().Msg(sprint(args...)) }
func Errorf(format string, args ...any) { log.Error().Msgf(format, args...) }

// Component returns a logger pre-tagged with a "component" field, e.g.
// nlog.Component("link-indexer").Infoln("processing", docID).
func Component(name string) *Tagged { return &Tagged{l: log.With().Str("component", name).Logger()} }

type Tagged struct{ l zerolog.Logger }

func (t *Tagged) Infoln(args ...any)  { t.l.Info().Msg(sprint(args...)) }
func (t *Tagged) Warnln(args ...any)  { t.l.Warn().Msg(sprint(args...)) }
func (t *Tagged) Errorln(args ...any) { t.l.Error().Msg(sprint(args...)) }
func (t *Tagged) Infof(format string, args ...any)  { t.l.Info().Msgf(format, args...) }
func (t *Tagged) Errorf(format string, args ...any) { t.l.Error().Msgf(format, args...) }

func sprint(args ...any) string {
	if len(args) == 1 {
		if s, ok := args[0].(string); ok {
			return s
		}
	}
	return fmt.Sprint(args...)
}
