package nav

import (
	"log/slog"
	"sync"
)

// PendingCounter counts in-flight restorations and drives the loading
// indicator. The indicator is on while the count is above zero.
type PendingCounter struct {
	mu       sync.Mutex
	n        int
	onChange func(loading bool)
	logger   *slog.Logger
	observe  func(n int)
}

// NewPendingCounter creates a counter that calls onChange whenever the
// indicator flips.
func NewPendingCounter(onChange func(loading bool), logger *slog.Logger) *PendingCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PendingCounter{onChange: onChange, logger: logger}
}

// Begin increments the count.
func (p *PendingCounter) Begin() {
	p.mu.Lock()
	p.n++
	n := p.n
	p.mu.Unlock()

	p.notify(n, n == 1)
}

// End decrements the count. An End without a matching Begin is logged and
// ignored so the count never goes negative.
func (p *PendingCounter) End() {
	p.mu.Lock()
	if p.n == 0 {
		p.mu.Unlock()
		p.logger.Warn("pending counter end without begin")
		return
	}
	p.n--
	n := p.n
	p.mu.Unlock()

	p.notify(n, n == 0)
}

// Count returns the number of in-flight restorations.
func (p *PendingCounter) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

func (p *PendingCounter) notify(n int, flipped bool) {
	if p.observe != nil {
		p.observe(n)
	}
	if flipped && p.onChange != nil {
		p.onChange(n > 0)
	}
}
