// Package prof accumulates wall-clock timings of pipeline stages. Stages
// call Track in a defer; callers bracket a run with Mark and Since.
package prof

import (
	"sort"
	"sync"
	"time"
)

// Entry is one timed stage.
type Entry struct {
	Label string
	Dur   time.Duration
}

// Recorder is an append-only log of entries, safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Default receives the package-level Track calls.
var Default = &Recorder{}

// Track records the time elapsed since start under label.
func (r *Recorder) Track(start time.Time, label string) {
	d := time.Since(start)
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Label: label, Dur: d})
	r.mu.Unlock()
}

// Mark returns the current length of the log.
func (r *Recorder) Mark() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Since copies the entries recorded after mark. Entries from concurrent runs
// are interleaved.
func (r *Recorder) Since(mark int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mark < 0 || mark > len(r.entries) {
		return nil
	}
	out := make([]Entry, len(r.entries)-mark)
	copy(out, r.entries[mark:])
	return out
}

// Reset drops every entry and returns what was there.
func (r *Recorder) Reset() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.entries
	r.entries = nil
	return out
}

func Track(start time.Time, label string) { Default.Track(start, label) }
func Mark() int { return Default.Mark() }
func Since(mark int) []Entry { return Default.Since(mark) }

// Totals sums durations per label.
func Totals(entries []Entry) map[string]time.Duration {
	out := make(map[string]time.Duration, len(entries))
	for _, e := range entries {
		out[e.Label] += e.Dur
	}
	return out
}

// Labels returns the distinct labels of a totals map in order.
func Labels(totals map[string]time.Duration) []string {
	out := make([]string, 0, len(totals))
	for l := range totals {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
