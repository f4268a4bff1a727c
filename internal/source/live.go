package source

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/perf"
	"golang.org/x/sys/unix"

	"github.com/goldshtn/etrace/internal/event"
	"github.com/goldshtn/etrace/internal/metrics"
)

const (
	eventsMapName      = "events"
	memLockLimit       = 64 * 1024 * 1024 // 64 MiB
	defaultBufferPages = 8
)

// LiveConfig describes a live kernel session: a compiled collection
// object and the tracepoints to attach its programs to.
type LiveConfig struct {
	ObjectPath  string
	Probes      []Probe
	BufferPages int
}

// Live streams events from attached tracepoints through a perf buffer.
// Stop closes the buffer, which unblocks the read loop and ends the
// session.
type Live struct {
	cfg    LiveConfig
	logger *slog.Logger

	coll   *ebpf.Collection
	links  []link.Link
	reader *perf.Reader

	// lost is written only by the read loop; readers observe it after
	// the event channel closes.
	lost uint64

	stopOnce sync.Once
	stopErr  error
}

func NewLive(cfg LiveConfig, logger *slog.Logger) *Live {
	if cfg.BufferPages <= 0 {
		cfg.BufferPages = defaultBufferPages
	}
	return &Live{cfg: cfg, logger: logger}
}

func (l *Live) Events(ctx context.Context) (<-chan *event.Event, error) {
	if err := raiseMemlock(); err != nil {
		return nil, err
	}

	spec, err := ebpf.LoadCollectionSpec(l.cfg.ObjectPath)
	if err != nil {
		return nil, fmt.Errorf("load collection %s: %w", l.cfg.ObjectPath, err)
	}
	l.coll, err = ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	for _, p := range l.cfg.Probes {
		prog, ok := l.coll.Programs[p.Program]
		if !ok {
			l.Stop()
			return nil, fmt.Errorf("program %q not found in %s", p.Program, l.cfg.ObjectPath)
		}
		tp, err := link.Tracepoint(p.Group, p.Name, prog, nil)
		if err != nil {
			l.Stop()
			return nil, fmt.Errorf("attach %s: %w", p, err)
		}
		l.links = append(l.links, tp)
	}

	eventsMap, ok := l.coll.Maps[eventsMapName]
	if !ok {
		l.Stop()
		return nil, fmt.Errorf("map %q not found in %s", eventsMapName, l.cfg.ObjectPath)
	}

	l.reader, err = perf.NewReader(eventsMap, l.cfg.BufferPages*os.Getpagesize())
	if err != nil {
		l.Stop()
		return nil, fmt.Errorf("create perf reader: %w", err)
	}

	wall, monoNs, err := clockAnchor()
	if err != nil {
		l.Stop()
		return nil, err
	}

	ch := make(chan *event.Event, 16)
	go l.readLoop(ctx, ch, wall, monoNs)
	go func() {
		<-ctx.Done()
		l.Stop()
	}()

	return ch, nil
}

func (l *Live) readLoop(ctx context.Context, ch chan<- *event.Event, wall time.Time, monoNs int64) {
	defer close(ch)

	for {
		record, err := l.reader.Read()
		if err != nil {
			if errors.Is(err, perf.ErrClosed) {
				return
			}
			l.logger.Error("perf reader failed", "error", err)
			continue
		}

		if record.LostSamples > 0 {
			l.lost += record.LostSamples
			metrics.EventsLost.Add(float64(record.LostSamples))
			continue
		}

		ev, err := decodeRecord(record.RawSample, wall, monoNs)
		if err != nil {
			metrics.DecodeErrors.Inc()
			l.logger.Debug("skipping undecodable record", "error", err)
			continue
		}

		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Stop tears the session down: perf reader first so the read loop
// unblocks, then the tracepoint links and the collection.
func (l *Live) Stop() error {
	l.stopOnce.Do(func() {
		if l.reader != nil {
			l.stopErr = l.reader.Close()
		}
		for _, ln := range l.links {
			ln.Close()
		}
		if l.coll != nil {
			l.coll.Close()
		}
	})
	return l.stopErr
}

func (l *Live) Lost() uint64 { return l.lost }

// rawHeader is the fixed little-endian preamble every raw sample starts
// with; zero or more NUL-terminated key=value payload entries follow.
type rawHeader struct {
	Pid    uint32
	Tid    uint32
	TimeNs uint64
	Comm   [16]byte
	Name   [32]byte
}

func decodeRecord(sample []byte, wall time.Time, monoNs int64) (*event.Event, error) {
	r := bytes.NewReader(sample)

	var h rawHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("decode record header: %w", err)
	}

	name := string(bytes.Trim(h.Name[:], "\x00"))
	if name == "" {
		return nil, fmt.Errorf("record has no event name")
	}

	ts := time.Now()
	if h.TimeNs != 0 {
		ts = wall.Add(time.Duration(int64(h.TimeNs) - monoNs))
	}

	ev := event.New(name, int(h.Pid), int(h.Tid), string(bytes.Trim(h.Comm[:], "\x00")), ts)

	rest := sample[len(sample)-r.Len():]
	for _, seg := range bytes.Split(rest, []byte{0}) {
		if len(seg) == 0 {
			continue
		}
		k, v, ok := bytes.Cut(seg, []byte{'='})
		if !ok {
			ev.AddFieldName(string(k))
			continue
		}
		ev.AddField(string(k), string(v))
	}

	return ev, nil
}

// clockAnchor pairs the wall clock with the monotonic clock the kernel
// stamps records with, so record times can be mapped back to wall time.
func clockAnchor() (time.Time, int64, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Time{}, 0, fmt.Errorf("read monotonic clock: %w", err)
	}
	return time.Now(), ts.Nano(), nil
}

func raiseMemlock() error {
	rLimit := unix.Rlimit{Cur: memLockLimit, Max: memLockLimit}
	if err := unix.Setrlimit(unix.RLIMIT_MEMLOCK, &rLimit); err != nil {
		return fmt.Errorf("set memlock rlimit: %w", err)
	}
	return nil
}
