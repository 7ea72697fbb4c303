package app

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gekko3d/particlefield/logging"
)

// Profiler keeps the last CPU duration of each named scope plus counters,
// and reports them with the frame rate once per ReportInterval.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	ReportInterval time.Duration
	Now            func() time.Time

	frames     int
	windowFrom time.Time
	fps        float64
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:         make(map[string]time.Duration),
		StartTimes:     make(map[string]time.Time),
		Counts:         make(map[string]int),
		Order:          make([]string, 0),
		ReportInterval: time.Second,
		Now:            time.Now,
	}
}

func (p *Profiler) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = p.now()
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = p.now().Sub(start)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

// FPS is the frame rate measured over the last completed interval.
func (p *Profiler) FPS() float64 {
	return p.fps
}

// EndFrame counts a frame and, once an interval has passed, updates FPS and
// logs the stats at debug level. It reports whether a report was produced.
func (p *Profiler) EndFrame(log logging.Logger) bool {
	now := p.now()
	if p.windowFrom.IsZero() {
		p.windowFrom = now
		return false
	}
	p.frames++

	elapsed := now.Sub(p.windowFrom)
	if elapsed < p.ReportInterval {
		return false
	}
	p.fps = float64(p.frames) / elapsed.Seconds()
	p.frames = 0
	p.windowFrom = now

	log = logging.OrNop(log)
	if log.DebugEnabled() {
		log.Debugf("%.1f fps %s", p.fps, p.Summary())
	}
	return true
}

// Summary renders scopes in first-seen order then counters by name, on one
// line: "update=0.12ms render=1.50ms | draws=1 particles=5000".
func (p *Profiler) Summary() string {
	parts := make([]string, 0, len(p.Order))
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		parts = append(parts, fmt.Sprintf("%s=%.2fms", name, ms))
	}
	counts := make([]string, 0, len(p.Counts))
	for _, name := range slices.Sorted(maps.Keys(p.Counts)) {
		counts = append(counts, fmt.Sprintf("%s=%d", name, p.Counts[name]))
	}
	if len(counts) > 0 {
		parts = append(parts, "|")
		parts = append(parts, counts...)
	}
	return strings.Join(parts, " ")
}
