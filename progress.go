package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/mattn/go-isatty"

	"oci-compliance-report/internal/scan"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ProgressTracker draws one bar over every scope × kind collection of a run.
type ProgressTracker struct {
	out     io.Writer
	enabled bool

	progress *uiprogress.Progress
	bar      *uiprogress.Bar
	once     sync.Once

	startTime time.Time
	records   atomic.Int64
	failures  atomic.Int64
	partial   atomic.Int64
	current   atomic.Value // string, "<scope>/<kind>" of the last finished collection
}

// NewProgressTracker creates a tracker writing to out. It stays silent when
// disabled or when out is not a terminal.
func NewProgressTracker(enabled bool, out io.Writer) *ProgressTracker {
	return &ProgressTracker{out: out, enabled: enabled && isTerminal(out)}
}

// Start implements scan.Progress.
func (pt *ProgressTracker) Start(total int) {
	pt.startTime = time.Now()
	pt.current.Store("")
	if !pt.enabled || total <= 0 {
		return
	}

	pt.progress = uiprogress.New()
	pt.progress.SetOut(pt.out)
	pt.progress.SetRefreshInterval(200 * time.Millisecond)

	pt.bar = pt.progress.AddBar(total).AppendCompleted().PrependElapsed()
	pt.bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("collections %d/%d", b.Current(), b.Total)
	})
	pt.bar.AppendFunc(func(b *uiprogress.Bar) string {
		return pt.status()
	})
	pt.progress.Start()
}

// Done implements scan.Progress.
func (pt *ProgressTracker) Done(ev scan.Event) {
	pt.records.Add(int64(ev.Records))
	pt.partial.Add(int64(ev.Partial))
	if ev.Err != nil {
		pt.failures.Add(1)
	}
	pt.current.Store(ev.Scope.Name + "/" + string(ev.Kind))

	if pt.bar != nil {
		pt.bar.Incr()
	}
}

// Stop ends the display. It is safe to call more than once.
func (pt *ProgressTracker) Stop() {
	pt.once.Do(func() {
		if pt.progress != nil {
			pt.progress.Stop()
		}
	})
}

func (pt *ProgressTracker) status() string {
	s := fmt.Sprintf("records %d", pt.records.Load())
	if f := pt.failures.Load(); f > 0 {
		s += fmt.Sprintf(" failed %d", f)
	}
	if p := pt.partial.Load(); p > 0 {
		s += fmt.Sprintf(" partial %d", p)
	}
	if cur, _ := pt.current.Load().(string); cur != "" {
		s += " " + cur
	}
	return s
}

// Stats summarizes what the tracker has seen.
type Stats struct {
	Elapsed  time.Duration
	Records  int64
	Failures int64
	Partial  int64
}

func (pt *ProgressTracker) Stats() Stats {
	var elapsed time.Duration
	if !pt.startTime.IsZero() {
		elapsed = time.Since(pt.startTime)
	}
	return Stats{
		Elapsed:  elapsed,
		Records:  pt.records.Load(),
		Failures: pt.failures.Load(),
		Partial:  pt.partial.Load(),
	}
}
