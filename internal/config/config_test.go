package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldshtn/etrace/internal/sink"
)

func validTrace() *Trace {
	return &Trace{
		File:        "events.jsonl",
		PID:         -1,
		TID:         -1,
		MaxWidth:    120,
		BufferPages: 8,
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ETRACE_CONFIG_DIR", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 120, cfg.MaxWidth)
	assert.Equal(t, "null", cfg.NullMarker)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, 8, cfg.BufferPages)
}

func TestLoadMatchesDefault(t *testing.T) {
	t.Setenv("ETRACE_CONFIG_DIR", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_width: 64\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxWidth)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ETRACE_CONFIG_DIR", dir)

	data := []byte("log_level: debug\nmax_width: 80\nnull_marker: \"-\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 80, cfg.MaxWidth)
	assert.Equal(t, "-", cfg.NullMarker)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ETRACE_CONFIG_DIR", dir)

	data := []byte("log_level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644))
	t.Setenv("ETRACE_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestCompileSourceValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Trace)
		wantErr string
	}{
		{
			name:    "no source",
			mutate:  func(tr *Trace) { tr.File = "" },
			wantErr: "no event source",
		},
		{
			name: "both sources",
			mutate: func(tr *Trace) {
				tr.Object = "probe.o"
				tr.ProbeSpecs = []string{"syscalls:sys_enter_openat"}
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "object without probes",
			mutate: func(tr *Trace) {
				tr.File = ""
				tr.Object = "probe.o"
			},
			wantErr: "requires at least one --probe",
		},
		{
			name: "raw and structured filters",
			mutate: func(tr *Trace) {
				tr.RawPattern = "disk"
				tr.Where = []string{"PID=4"}
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "negative pid",
			mutate:  func(tr *Trace) { tr.PID = -7 },
			wantErr: "invalid pid",
		},
		{
			name:    "negative duration",
			mutate:  func(tr *Trace) { tr.DurationSec = -3 },
			wantErr: "invalid duration",
		},
		{
			name:    "zero width",
			mutate:  func(tr *Trace) { tr.MaxWidth = 0 },
			wantErr: "invalid table width",
		},
		{
			name:    "zero buffer",
			mutate:  func(tr *Trace) { tr.BufferPages = 0 },
			wantErr: "invalid buffer size",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := validTrace()
			tc.mutate(tr)
			_, err := tr.Compile()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCompileFilters(t *testing.T) {
	tr := validTrace()
	tr.Where = []string{"PID=4", "Reason=paging && Bytes>4096"}

	c, err := tr.Compile()
	require.NoError(t, err)
	assert.Len(t, c.Filters, 2)
	assert.Nil(t, c.Raw)
}

func TestCompileCommaSeparatedFilters(t *testing.T) {
	tr := validTrace()
	tr.Where = []string{"PID=4,pname=dotnet"}

	c, err := tr.Compile()
	require.NoError(t, err)
	assert.Len(t, c.Filters, 2)
}

func TestCompileMalformedFilter(t *testing.T) {
	tr := validTrace()
	tr.Where = []string{"PID=4", "&&"}

	_, err := tr.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed filter")
}

func TestCompileRawFilter(t *testing.T) {
	tr := validTrace()
	tr.RawPattern = "flush.*disk"

	c, err := tr.Compile()
	require.NoError(t, err)
	require.NotNil(t, c.Raw)
	assert.True(t, c.Raw.MatchString("Flush to DISK complete"))
}

func TestCompileBadRawFilter(t *testing.T) {
	tr := validTrace()
	tr.RawPattern = "(["

	_, err := tr.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile raw filter")
}

func TestCompileProbes(t *testing.T) {
	tr := validTrace()
	tr.File = ""
	tr.Object = "probe.o"
	tr.ProbeSpecs = []string{"syscalls:sys_enter_openat", "sched:sched_switch:trace_switch"}

	c, err := tr.Compile()
	require.NoError(t, err)
	require.Len(t, c.Probes, 2)
	assert.Equal(t, "syscalls", c.Probes[0].Group)
	assert.Equal(t, "trace_switch", c.Probes[1].Program)
}

func TestParseFieldSpec(t *testing.T) {
	tests := []struct {
		spec    string
		want    sink.FieldSpec
		wantErr bool
	}{
		{spec: "PID", want: sink.FieldSpec{Name: "PID"}},
		{spec: "Reason[12]", want: sink.FieldSpec{Name: "Reason", Width: 12}},
		{spec: "File Name[40]", want: sink.FieldSpec{Name: "File Name", Width: 40}},
		{spec: "", wantErr: true},
		{spec: "[12]", wantErr: true},
		{spec: "Reason[", wantErr: true},
		{spec: "Reason[x]", wantErr: true},
		{spec: "Reason[0]", wantErr: true},
		{spec: "Reason[-4]", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.spec, func(t *testing.T) {
			got, err := ParseFieldSpec(tc.spec)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
