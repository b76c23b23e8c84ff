package sink

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/transport"
)

// Printer writes one value per line: the decimal connection count, or the
// three hex-encoded transaction fields on consecutive lines.
type Printer struct {
	// CountLabel, when set, prints counts as "<label>: <n>".
	CountLabel string

	mu sync.Mutex
	w  io.Writer
}

// NewPrinter writes to w, or standard output when w is nil.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

func (p *Printer) ConnectionCount(_ time.Time, n uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.CountLabel != "" {
		_, err = fmt.Fprintf(p.w, "%s: %d\n", p.CountLabel, n)
	} else {
		_, err = fmt.Fprintln(p.w, n)
	}
	return err
}

func (p *Printer) Transaction(_ time.Time, ev transport.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range ev.Hex() {
		if _, err := fmt.Fprintln(p.w, h); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) Close() error { return nil }
