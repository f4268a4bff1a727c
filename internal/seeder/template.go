// Package seeder generates synthetic trace files for demos and for
// exercising filters without a live capture session.
package seeder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Template describes the shape of the generated stream: the process
// mix and the event kinds with their payload fields. A YAML file can
// replace the built-in default wholesale.
type Template struct {
	Version   string        `yaml:"version"`
	Processes []ProcessSpec `yaml:"processes"`
	Events    []EventSpec   `yaml:"events"`
}

// ProcessSpec is one synthetic process image; Weight biases how many
// of the generated processes carry this name.
type ProcessSpec struct {
	Name   string `yaml:"name"`
	Weight int    `yaml:"weight"`
}

// EventSpec is one event kind; Weight biases how often it is emitted.
type EventSpec struct {
	Name   string      `yaml:"name"`
	Weight int         `yaml:"weight"`
	Fields []FieldSpec `yaml:"fields"`
}

// FieldSpec is one payload field. Kind selects the value generator;
// Min/Max bound the numeric kinds and Options feeds the choice kind.
type FieldSpec struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Min     int      `yaml:"min"`
	Max     int      `yaml:"max"`
	Options []string `yaml:"options"`
}

var fieldKinds = map[string]bool{
	"path":     true,
	"image":    true,
	"bytes":    true,
	"int":      true,
	"port":     true,
	"ip":       true,
	"hostname": true,
	"uuid":     true,
	"user":     true,
	"word":     true,
	"choice":   true,
	"hex":      true,
}

// LoadTemplate reads a template from a YAML file.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	tpl := &Template{}
	if err := yaml.Unmarshal(data, tpl); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	if err := tpl.Validate(); err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	return tpl, nil
}

// Validate checks the template for holes that would make generation
// meaningless.
func (t *Template) Validate() error {
	if len(t.Processes) == 0 {
		return fmt.Errorf("no processes defined")
	}
	if len(t.Events) == 0 {
		return fmt.Errorf("no events defined")
	}
	for i, p := range t.Processes {
		if p.Name == "" {
			return fmt.Errorf("process %d: name is required", i)
		}
		if p.Weight < 0 {
			return fmt.Errorf("process %s: negative weight", p.Name)
		}
	}
	for _, e := range t.Events {
		if e.Name == "" {
			return fmt.Errorf("event with empty name")
		}
		if e.Weight < 0 {
			return fmt.Errorf("event %s: negative weight", e.Name)
		}
		for _, f := range e.Fields {
			if f.Name == "" {
				return fmt.Errorf("event %s: field with empty name", e.Name)
			}
			if !fieldKinds[f.Kind] {
				return fmt.Errorf("event %s field %s: unknown kind %q", e.Name, f.Name, f.Kind)
			}
			if f.Kind == "choice" && len(f.Options) == 0 {
				return fmt.Errorf("event %s field %s: choice kind needs options", e.Name, f.Name)
			}
			if f.Min > f.Max {
				return fmt.Errorf("event %s field %s: min %d > max %d", e.Name, f.Name, f.Min, f.Max)
			}
		}
	}
	return nil
}

// DefaultTemplate is the built-in event mix, loosely modeled on a
// kernel trace of a busy application host.
func DefaultTemplate() *Template {
	return &Template{
		Version: "1",
		Processes: []ProcessSpec{
			{Name: "dotnet", Weight: 3},
			{Name: "nginx", Weight: 2},
			{Name: "postgres", Weight: 2},
			{Name: "redis-server", Weight: 1},
			{Name: "chrome", Weight: 3},
		},
		Events: []EventSpec{
			{
				Name: "GC/Start", Weight: 2,
				Fields: []FieldSpec{
					{Name: "Reason", Kind: "choice", Options: []string{"Small", "Induced", "LowMemory"}},
					{Name: "Depth", Kind: "int", Max: 2},
					{Name: "ActivityID", Kind: "uuid"},
				},
			},
			{
				Name: "GC/Stop", Weight: 2,
				Fields: []FieldSpec{
					{Name: "Depth", Kind: "int", Max: 2},
					{Name: "ActivityID", Kind: "uuid"},
				},
			},
			{
				Name: "FileIo/Create", Weight: 3,
				Fields: []FieldSpec{
					{Name: "FileName", Kind: "path"},
					{Name: "ShareAccess", Kind: "choice", Options: []string{"Read", "Write", "ReadWrite", "Delete"}},
					{Name: "Irp", Kind: "hex"},
				},
			},
			{
				Name: "FileIo/Read", Weight: 5,
				Fields: []FieldSpec{
					{Name: "FileName", Kind: "path"},
					{Name: "Offset", Kind: "int", Max: 1 << 30},
					{Name: "Bytes", Kind: "bytes"},
				},
			},
			{
				Name: "FileIo/Write", Weight: 4,
				Fields: []FieldSpec{
					{Name: "FileName", Kind: "path"},
					{Name: "Offset", Kind: "int", Max: 1 << 30},
					{Name: "Bytes", Kind: "bytes"},
				},
			},
			{
				Name: "Process/Start", Weight: 1,
				Fields: []FieldSpec{
					{Name: "ImageName", Kind: "image"},
					{Name: "User", Kind: "user"},
					{Name: "ParentPID", Kind: "int", Min: 1, Max: 65535},
				},
			},
			{
				Name: "Process/Stop", Weight: 1,
				Fields: []FieldSpec{
					{Name: "ExitCode", Kind: "int", Max: 255},
				},
			},
			{
				Name: "PageFault/HardFault", Weight: 2,
				Fields: []FieldSpec{
					{Name: "Address", Kind: "hex"},
					{Name: "Bytes", Kind: "bytes"},
					{Name: "Reason", Kind: "choice", Options: []string{"Demand", "Transition", "CopyOnWrite"}},
				},
			},
			{
				Name: "TcpIp/Send", Weight: 3,
				Fields: []FieldSpec{
					{Name: "DestAddr", Kind: "ip"},
					{Name: "DestPort", Kind: "port"},
					{Name: "Bytes", Kind: "bytes"},
				},
			},
			{
				Name: "TcpIp/Recv", Weight: 3,
				Fields: []FieldSpec{
					{Name: "SourceAddr", Kind: "ip"},
					{Name: "SourcePort", Kind: "port"},
					{Name: "Bytes", Kind: "bytes"},
				},
			},
			{
				Name: "DiskIo/Flush", Weight: 1,
				Fields: []FieldSpec{
					{Name: "DiskNumber", Kind: "int", Max: 3},
					{Name: "IrpFlags", Kind: "hex"},
				},
			},
		},
	}
}
