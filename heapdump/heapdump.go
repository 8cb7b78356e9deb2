// Copyright © 2024 The ELPS authors

// Package heapdump renders the contents of a store for inspection.
package heapdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/boxlang/lang"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"gopkg.in/yaml.v2"
)

// DefaultWidth is the text width used by WriteText when given a width of 0.
const DefaultWidth = 72

// Dump is a serializable picture of a store.
type Dump struct {
	Strategy string `yaml:"strategy,omitempty"`
	Capacity int    `yaml:"capacity"`
	Live     int    `yaml:"live"`
	Slots    []Slot `yaml:"slots"`
}

// Slot is one occupied store slot.  Refs lists the addresses embedded in the
// slot's value, which are the slot's outgoing edges in the heap graph.
type Slot struct {
	Addr  int    `yaml:"addr"`
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
	Refs  []int  `yaml:"refs,omitempty"`
}

// FromStore builds a Dump of the occupied slots of s.
func FromStore(s lang.Store) Dump {
	snap := s.Snapshot()
	d := Dump{
		Capacity: s.Cap(),
		Live:     len(snap),
		Slots:    make([]Slot, len(snap)),
	}
	switch s.(type) {
	case *lang.NoGCStore:
		d.Strategy = lang.StrategyNoGC.String()
	case *lang.MarkSweepStore:
		d.Strategy = lang.StrategyMarkSweep.String()
	}
	for i, info := range snap {
		d.Slots[i] = Slot{
			Addr:  int(info.Addr),
			Kind:  info.Value.Type.String(),
			Value: info.Value.String(),
		}
		for _, a := range lang.AddressesIn(info.Value) {
			d.Slots[i].Refs = append(d.Slots[i].Refs, int(a))
		}
	}
	return d
}

// WriteYAML writes d to w as a YAML document.
func WriteYAML(w io.Writer, d Dump) error {
	b, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// WriteText writes d to w in a human readable form with long values wrapped
// at width columns.
func WriteText(w io.Writer, d Dump, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	var buf bytes.Buffer
	header := fmt.Sprintf("store: %d of %d slots live", d.Live, d.Capacity)
	if d.Strategy != "" {
		header += " (" + d.Strategy + ")"
	}
	buf.WriteString(header)
	buf.WriteString("\n")
	for _, sl := range d.Slots {
		fmt.Fprintf(&buf, "  @%d %s\n", sl.Addr, sl.Kind)
		body := sl.Value
		if len(sl.Refs) > 0 {
			refs := make([]string, len(sl.Refs))
			for i, a := range sl.Refs {
				refs[i] = fmt.Sprintf("@%d", a)
			}
			body += "\n-> " + strings.Join(refs, " ")
		}
		buf.WriteString(indent.String(wordwrap.String(body, width-4), 4))
		buf.WriteString("\n")
	}
	_, err := w.Write(buf.Bytes())
	return err
}
