package seeder

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/goldshtn/etrace/internal/event"
)

var filePaths = []string{
	"/var/log/app.log",
	"/etc/nginx/nginx.conf",
	"/var/lib/postgresql/data/base/16384/2619",
	"/home/user/documents/report.pdf",
	"/opt/data/config.json",
	"/usr/share/dotnet/shared/Microsoft.NETCore.App/9.0.0/System.Private.CoreLib.dll",
}

var imagePaths = []string{
	"/usr/bin/dotnet",
	"/usr/sbin/nginx",
	"/usr/lib/postgresql/16/bin/postgres",
	"/usr/bin/redis-server",
	"/opt/google/chrome/chrome",
}

type process struct {
	name string
	pid  int
	tids []int
}

// Generator produces a time-ordered stream of synthetic events from a
// template. With a non-zero seed the stream is fully deterministic.
type Generator struct {
	tpl   *Template
	rng   *rand.Rand
	faker *gofakeit.Faker

	procs []process
	clock time.Time
}

// NewGenerator builds a generator with pidSetSize synthetic processes
// drawn from the template's process mix. The clock starts far enough in
// the past that count events at the average gap end near now.
func NewGenerator(tpl *Template, seed int64, pidSetSize, count int) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Generator{
		tpl:   tpl,
		rng:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.New(seed),
	}

	seen := map[int]bool{}
	for i := 0; i < pidSetSize; i++ {
		spec := tpl.Processes[g.weightedProcess()]
		pid := 1000 + g.rng.Intn(60000)
		for seen[pid] {
			pid = 1000 + g.rng.Intn(60000)
		}
		seen[pid] = true

		tids := make([]int, 1+g.rng.Intn(4))
		for j := range tids {
			tids[j] = pid + j
		}
		g.procs = append(g.procs, process{name: spec.Name, pid: pid, tids: tids})
	}

	spread := time.Duration(count) * time.Millisecond
	g.clock = time.Now().Add(-spread)
	return g
}

// Next generates one event and advances the clock.
func (g *Generator) Next() *event.Event {
	spec := g.tpl.Events[g.weightedEvent()]
	proc := g.procs[g.rng.Intn(len(g.procs))]
	tid := proc.tids[g.rng.Intn(len(proc.tids))]

	g.clock = g.clock.Add(time.Duration(100+g.rng.Intn(1900)) * time.Microsecond)

	ev := event.New(spec.Name, proc.pid, tid, proc.name, g.clock)
	for _, f := range spec.Fields {
		ev.AddField(f.Name, g.fieldValue(f))
	}
	return ev
}

func (g *Generator) fieldValue(f FieldSpec) any {
	switch f.Kind {
	case "path":
		if g.rng.Intn(4) == 0 {
			return "/tmp/etrace_" + g.faker.UUID()[:8]
		}
		return filePaths[g.rng.Intn(len(filePaths))]
	case "image":
		return imagePaths[g.rng.Intn(len(imagePaths))]
	case "bytes":
		// Size skews small: a byte count in [2^6, 2^20) with jitter.
		base := 1 << (6 + g.rng.Intn(14))
		return base + g.rng.Intn(base)
	case "int":
		max := f.Max
		if max <= f.Min {
			max = f.Min + 65535
		}
		return f.Min + g.rng.Intn(max-f.Min+1)
	case "port":
		return 1024 + g.rng.Intn(65535-1024)
	case "ip":
		return g.faker.IPv4Address()
	case "hostname":
		return g.faker.DomainName()
	case "uuid":
		return g.faker.UUID()
	case "user":
		return g.faker.Username()
	case "word":
		return g.faker.Word()
	case "choice":
		return f.Options[g.rng.Intn(len(f.Options))]
	case "hex":
		return fmt.Sprintf("0x%08X", g.rng.Uint32())
	default:
		return nil
	}
}

func (g *Generator) weightedProcess() int {
	weights := make([]int, len(g.tpl.Processes))
	for i, p := range g.tpl.Processes {
		weights[i] = p.Weight
	}
	return g.weightedIndex(weights)
}

func (g *Generator) weightedEvent() int {
	weights := make([]int, len(g.tpl.Events))
	for i, e := range g.tpl.Events {
		weights[i] = e.Weight
	}
	return g.weightedIndex(weights)
}

// weightedIndex picks an index proportionally to weights; zero weights
// count as one so unweighted entries still appear.
func (g *Generator) weightedIndex(weights []int) int {
	total := 0
	for i, w := range weights {
		if w <= 0 {
			weights[i] = 1
		}
		total += weights[i]
	}
	n := g.rng.Intn(total)
	for i, w := range weights {
		n -= w
		if n < 0 {
			return i
		}
	}
	return len(weights) - 1
}
