package source

import (
	"fmt"
	"strings"
)

// Probe names a tracepoint and the collection program to attach to it.
type Probe struct {
	Group   string
	Name    string
	Program string
}

// ParseProbe parses a "group:name[:program]" probe spec. When the
// program part is omitted it defaults to the tracepoint name.
func ParseProbe(spec string) (Probe, error) {
	parts := strings.Split(spec, ":")
	for _, part := range parts {
		if part == "" {
			return Probe{}, fmt.Errorf("invalid probe %q: want group:name[:program]", spec)
		}
	}

	switch len(parts) {
	case 2:
		return Probe{Group: parts[0], Name: parts[1], Program: parts[1]}, nil
	case 3:
		return Probe{Group: parts[0], Name: parts[1], Program: parts[2]}, nil
	}
	return Probe{}, fmt.Errorf("invalid probe %q: want group:name[:program]", spec)
}

func (p Probe) String() string {
	return p.Group + ":" + p.Name
}
