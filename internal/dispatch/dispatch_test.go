package dispatch_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldshtn/etrace/internal/dispatch"
	"github.com/goldshtn/etrace/internal/event"
	"github.com/goldshtn/etrace/internal/filter"
)

// mockSink records what the pipeline forwards.
type mockSink struct {
	accepted []*event.Event
	rendered []string
	closed   int
}

func (m *mockSink) Accept(ev *event.Event) {
	m.accepted = append(m.accepted, ev)
}

func (m *mockSink) AcceptRendered(ev *event.Event, description string) {
	m.accepted = append(m.accepted, ev)
	m.rendered = append(m.rendered, description)
}

func (m *mockSink) Close() error {
	m.closed++
	return nil
}

func defaultConfig() dispatch.Config {
	return dispatch.Config{PID: dispatch.MatchAllPIDs, TID: dispatch.MatchAllPIDs}
}

func makeEvent(name string, pid, tid int, process string, fields map[string]any) *event.Event {
	ev := event.New(name, pid, tid, process, time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC))
	for k, v := range fields {
		ev.AddField(k, v)
	}
	return ev
}

func mustFilter(t *testing.T, expr string) filter.Expr {
	t.Helper()
	f, err := filter.Parse(expr)
	require.NoError(t, err)
	return f
}

func TestDispatchForwardsEverythingWithoutFilters(t *testing.T) {
	s := &mockSink{}
	p := dispatch.New(defaultConfig(), s)

	p.Dispatch(makeEvent("GC/Start", 4, 9, "dotnet", nil))
	p.Dispatch(makeEvent("GC/Stop", 4, 9, "dotnet", nil))

	assert.Len(t, s.accepted, 2)

	c := p.Counters()
	assert.Equal(t, uint64(2), c.Observed)
	assert.Equal(t, uint64(2), c.Forwarded)
}

func TestDispatchPIDFilter(t *testing.T) {
	cfg := defaultConfig()
	cfg.PID = 4
	s := &mockSink{}
	p := dispatch.New(cfg, s)

	p.Dispatch(makeEvent("GC/Start", 4, 9, "dotnet", nil))
	p.Dispatch(makeEvent("GC/Start", 8, 9, "java", nil))

	require.Len(t, s.accepted, 1)
	assert.Equal(t, 4, s.accepted[0].ProcessID)

	c := p.Counters()
	assert.Equal(t, uint64(2), c.Observed)
	assert.Equal(t, uint64(1), c.Forwarded)
}

func TestDispatchTIDFilter(t *testing.T) {
	cfg := defaultConfig()
	cfg.TID = 9
	s := &mockSink{}
	p := dispatch.New(cfg, s)

	p.Dispatch(makeEvent("GC/Start", 4, 9, "dotnet", nil))
	p.Dispatch(makeEvent("GC/Start", 4, 12, "dotnet", nil))

	require.Len(t, s.accepted, 1)
	assert.Equal(t, 9, s.accepted[0].ThreadID)
}

func TestDispatchEventAllowList(t *testing.T) {
	cfg := defaultConfig()
	cfg.Events = []string{"GC/Start", "GC/Stop"}
	s := &mockSink{}
	p := dispatch.New(cfg, s)

	p.Dispatch(makeEvent("GC/Start", 4, 9, "dotnet", nil))
	p.Dispatch(makeEvent("IO/Read", 4, 9, "dotnet", nil))
	p.Dispatch(makeEvent("gc/stop", 4, 9, "dotnet", nil)) // names compare case-insensitively

	assert.Len(t, s.accepted, 2)
}

func TestDispatchRawFilterForwardsRenderedDescription(t *testing.T) {
	cfg := defaultConfig()
	cfg.RawFilter = regexp.MustCompile(`(?i)reason = small`)
	s := &mockSink{}
	p := dispatch.New(cfg, s)

	p.Dispatch(makeEvent("GC/Start", 4, 9, "dotnet", map[string]any{"Reason": "Small"}))
	p.Dispatch(makeEvent("GC/Stop", 4, 9, "dotnet", nil))

	require.Len(t, s.accepted, 1)
	require.Len(t, s.rendered, 1)
	assert.Contains(t, s.rendered[0], "GC/Start")
	assert.Contains(t, s.rendered[0], "Reason = Small")
}

func TestDispatchStructuredFiltersAreORed(t *testing.T) {
	cfg := defaultConfig()
	cfg.Filters = []filter.Expr{
		mustFilter(t, "Reason=Induced"),
		mustFilter(t, "Depth>5"),
	}
	s := &mockSink{}
	p := dispatch.New(cfg, s)

	p.Dispatch(makeEvent("GC/Start", 4, 9, "dotnet", map[string]any{"Reason": "Induced"}))
	p.Dispatch(makeEvent("GC/Start", 4, 9, "dotnet", map[string]any{"Depth": 10}))
	p.Dispatch(makeEvent("GC/Start", 4, 9, "dotnet", map[string]any{"Reason": "Small", "Depth": 2}))

	assert.Len(t, s.accepted, 2)

	c := p.Counters()
	assert.Equal(t, uint64(3), c.Observed)
	assert.Equal(t, uint64(2), c.Forwarded)
}

func TestDispatchScenario(t *testing.T) {
	// Allow-list plus structured filter: only the GC/Start event with
	// the matching payload makes it through.
	cfg := defaultConfig()
	cfg.Events = []string{"GC/Start"}
	cfg.Filters = []filter.Expr{mustFilter(t, "Reason=Small")}
	s := &mockSink{}
	p := dispatch.New(cfg, s)

	p.Dispatch(makeEvent("GC/Start", 4, 9, "dotnet", map[string]any{"Reason": "Small"}))
	p.Dispatch(makeEvent("GC/Stop", 8, 9, "java", nil))

	c := p.Counters()
	assert.Equal(t, uint64(2), c.Observed)
	assert.Equal(t, uint64(1), c.Forwarded)
	require.Len(t, s.accepted, 1)
	assert.Equal(t, "GC/Start", s.accepted[0].Name)
}

func TestDispatchScalarFiltersRunBeforeExpressions(t *testing.T) {
	cfg := defaultConfig()
	cfg.PID = 4
	cfg.Filters = []filter.Expr{mustFilter(t, "Reason=Small")}
	s := &mockSink{}
	p := dispatch.New(cfg, s)

	// Matches the expression but comes from the wrong process.
	p.Dispatch(makeEvent("GC/Start", 8, 9, "java", map[string]any{"Reason": "Small"}))

	assert.Empty(t, s.accepted)
}
