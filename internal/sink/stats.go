package sink

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/goldshtn/etrace/internal/event"
	"github.com/goldshtn/etrace/pkg/output"
)

// StatsAggregator counts events instead of printing them: one frequency
// table keyed by event name, one keyed by process name. Both tables are
// printed when the aggregator is closed, and only on the first close.
type StatsAggregator struct {
	w io.Writer

	byEvent   *counterTable
	byProcess *counterTable

	closeOnce sync.Once
}

func NewStatsAggregator(w io.Writer) *StatsAggregator {
	return &StatsAggregator{
		w:         w,
		byEvent:   newCounterTable(),
		byProcess: newCounterTable(),
	}
}

func (s *StatsAggregator) Accept(ev *event.Event) {
	s.byEvent.inc(ev.Name)
	s.byProcess.inc(ev.ProcessName)
}

func (s *StatsAggregator) AcceptRendered(ev *event.Event, _ string) {
	s.Accept(ev)
}

// Close prints both frequency tables, highest count first, ties in the
// order the key was first seen.
func (s *StatsAggregator) Close() error {
	s.closeOnce.Do(func() {
		s.printTable("Events by name", s.byEvent)
		fmt.Fprintln(s.w)
		s.printTable("Events by process", s.byProcess)
	})
	return nil
}

func (s *StatsAggregator) printTable(title string, t *counterTable) {
	output.Fheader(s.w, title)
	for _, e := range t.sorted() {
		fmt.Fprintf(s.w, "  %-32s %12d\n", e.key, e.count)
	}
}

// counterTable is an insertion-ordered frequency table. The dispatch
// goroutine is the only writer, so no locking here.
type counterTable struct {
	order  []string
	counts map[string]uint64
}

func newCounterTable() *counterTable {
	return &counterTable{counts: make(map[string]uint64)}
}

func (t *counterTable) inc(key string) {
	if _, seen := t.counts[key]; !seen {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

type counterEntry struct {
	key   string
	count uint64
}

func (t *counterTable) sorted() []counterEntry {
	entries := make([]counterEntry, 0, len(t.order))
	for _, key := range t.order {
		entries = append(entries, counterEntry{key: key, count: t.counts[key]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].count > entries[j].count
	})
	return entries
}
