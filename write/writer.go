// Package write handles progress output for an optimization run: a
// throttled human-readable table on one set of writers, a CSV log of
// every committed iteration on another, and a zap channel for the
// solver's non-fatal warnings. The emitted columns are fixed — date,
// time, iter, log10(f) — so the sink needs no per-run column
// negotiation.
package write

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"go.uber.org/zap"
)

type Type int

const (
	// Logger records one CSV row per committed iteration, intended for
	// postprocessing after the run.
	Logger Type = iota

	// Displayer is for live human monitoring: rows are rate-limited so
	// a fast objective doesn't flood the terminal, and the heading is
	// re-printed periodically so a long run stays readable.
	Displayer
)

type Writer struct {
	io.Writer
	T Type
}

type Settings struct {
	DisplayWriters []Writer // nil disables all progress output
	Logger         *zap.Logger
}

func DefaultWriteSettings() *Settings {
	return &Settings{
		DisplayWriters: []Writer{{os.Stdout, Displayer}},
	}
}

// Warn forwards a non-fatal optimizer condition (a BFGS or trust-region
// model Hessian reset after a curvature-condition failure) to the configured
// logger. A nil Logger makes this a no-op so Settings{} remains a
// valid zero value.
func (s *Settings) Warn(msg string, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, fields...)
}

// A display heading is re-printed after this many displayed rows, and
// displayed rows are spaced at least rowInterval apart. CSV output is
// never throttled.
const headingInterval = 30
const rowInterval = 500 * time.Millisecond

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04:05"
)

// Sink fans one iteration's progress out to every configured writer.
type Sink struct {
	writers []Writer

	rowsSinceHeading int
	lastDisplay      time.Time
}

// NewSink writes the run banner to every writer and the CSV heading to
// the Logger writers. It returns nil when settings carries no writers,
// which callers treat as progress output being disabled.
func NewSink(settings *Settings) (*Sink, error) {
	if settings == nil || len(settings.DisplayWriters) == 0 {
		return nil, nil
	}
	k := &Sink{
		writers: settings.DisplayWriters,
		// Primed so the first Row always displays, heading included.
		rowsSinceHeading: headingInterval + 1,
		lastDisplay:      time.Now().Add(-rowInterval),
	}
	for _, w := range k.writers {
		if _, err := fmt.Fprintf(w, "Beginning Optimization\n\n"); err != nil {
			return nil, err
		}
		if w.T == Logger {
			if _, err := fmt.Fprintf(w, "date,time,iter,log10(f)\n"); err != nil {
				return nil, err
			}
		}
	}
	return k, nil
}

// Row emits one committed iteration. Logger writers always get the CSV
// row; Displayer writers get an aligned row subject to the throttles.
func (k *Sink) Row(iter int, f float64) error {
	now := time.Now()
	log10f := math.Log10(math.Abs(f))

	display := now.Sub(k.lastDisplay) >= rowInterval
	heading := display && k.rowsSinceHeading > headingInterval
	if display {
		k.lastDisplay = now
		k.rowsSinceHeading++
	}
	if heading {
		k.rowsSinceHeading = 0
	}

	for _, w := range k.writers {
		switch w.T {
		case Logger:
			if _, err := fmt.Fprintf(w, "%s,%s,%d,%e\n",
				now.Format(dateFormat), now.Format(timeFormat), iter, log10f); err != nil {
				return err
			}
		case Displayer:
			if heading {
				if _, err := fmt.Fprintf(w, "\n%-10s  %-8s  %8s  %12s\n",
					"date", "time", "iter", "log10(f)"); err != nil {
					return err
				}
			}
			if display {
				if _, err := fmt.Fprintf(w, "%-10s  %-8s  %8d  %12.6f\n",
					now.Format(dateFormat), now.Format(timeFormat), iter, log10f); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("write: unknown writer type %d", w.T)
		}
	}
	return nil
}
