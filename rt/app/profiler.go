package app

import (
	"fmt"
	"strings"
	"time"
)

type scopeTiming struct {
	start time.Time
	last  time.Duration
	total time.Duration
	count int
}

// Profiler times named CPU scopes of the frame loop. Scopes are reported in
// the order they were first begun.
type Profiler struct {
	scopes map[string]*scopeTiming
	order  []string
	now    func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		scopes: make(map[string]*scopeTiming),
		now:    time.Now,
	}
}

func (p *Profiler) Begin(name string) {
	s, ok := p.scopes[name]
	if !ok {
		s = &scopeTiming{}
		p.scopes[name] = s
		p.order = append(p.order, name)
	}
	s.start = p.now()
}

// End closes the scope opened by the matching Begin. Unknown names are
// ignored.
func (p *Profiler) End(name string) {
	s, ok := p.scopes[name]
	if !ok || s.start.IsZero() {
		return
	}
	s.last = p.now().Sub(s.start)
	s.total += s.last
	s.count++
	s.start = time.Time{}
}

func (p *Profiler) Last(name string) time.Duration {
	if s, ok := p.scopes[name]; ok {
		return s.last
	}
	return 0
}

func (p *Profiler) Average(name string) time.Duration {
	s, ok := p.scopes[name]
	if !ok || s.count == 0 {
		return 0
	}
	return s.total / time.Duration(s.count)
}

// Summary is one line per scope: last and average duration in ms.
func (p *Profiler) Summary() string {
	var sb strings.Builder
	for i, name := range p.order {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%-8s %6.2f ms (avg %.2f)", name, ms(p.Last(name)), ms(p.Average(name)))
	}
	return sb.String()
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
