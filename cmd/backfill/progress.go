package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"

	"backfill/internal/reconcile"
)

// progressPrinter writes one "<title> (<year>) -> <outcome>" line per record.
type progressPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

var _ reconcile.Observer = (*progressPrinter)(nil)

func newProgressPrinter(out io.Writer, color bool) *progressPrinter {
	return &progressPrinter{out: out, color: color}
}

func (p *progressPrinter) OnStart(string) {}

func (p *progressPrinter) OnRecord(record reconcile.Record, outcome reconcile.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s -> %s\n", record.Label(), p.paint(outcome))
}

func (p *progressPrinter) OnFinish(reconcile.Summary, error) {}

func (p *progressPrinter) paint(outcome reconcile.Outcome) string {
	line := outcome.String()
	if !p.color {
		return line
	}
	switch outcome.Status {
	case reconcile.StatusUpdated:
		return text.Colors{text.FgGreen}.Sprint(line)
	case reconcile.StatusFailed:
		return text.Colors{text.FgRed, text.Bold}.Sprint(line)
	default:
		return text.Colors{text.FgYellow}.Sprint(line)
	}
}
