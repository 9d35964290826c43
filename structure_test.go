package picoquant_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ICHEC/picoquant"
	"github.com/ICHEC/picoquant/backend"
)

func TestStructureRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		build func(t *testing.T) *picoquant.Circuit
	}{
		{
			name: "fresh",
			build: func(t *testing.T) *picoquant.Circuit {
				c, err := picoquant.New(backend.NewMem(), 4)
				if err != nil {
					t.Fatalf("%+v", err)
				}
				return c
			},
		},
		{
			name:  "ghz",
			build: ghz3,
		},
		{
			name: "decomposed",
			build: func(t *testing.T) *picoquant.Circuit {
				c := ghz3(t)
				if err := c.AddOutput("000"); err != nil {
					t.Fatalf("%+v", err)
				}
				if _, _, err := c.Decompose("node_2", []string{"index_4", "index_5"}, []string{"index_2", "index_6"}, 1e-6); err != nil {
					t.Fatalf("%+v", err)
				}
				return c
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			c := test.build(t)
			s := c.ToStructure()

			jb, err := json.Marshal(s)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			var js picoquant.Structure
			if err := json.Unmarshal(jb, &js); err != nil {
				t.Fatalf("%+v", err)
			}
			loaded, err := picoquant.FromStructure(backend.NewMem(), &js)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			jb2, err := json.Marshal(loaded.ToStructure())
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !bytes.Equal(jb, jb2) {
				t.Fatalf("%s, expected %s", jb2, jb)
			}

			yb, err := yaml.Marshal(s)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			var ys picoquant.Structure
			if err := yaml.Unmarshal(yb, &ys); err != nil {
				t.Fatalf("%+v", err)
			}
			loaded, err = picoquant.FromStructure(backend.NewMem(), &ys)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			yb2, err := yaml.Marshal(loaded.ToStructure())
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !bytes.Equal(yb, yb2) {
				t.Fatalf("%s, expected %s", yb2, yb)
			}
		})
	}
}

// Counters resume from the maximum numeric suffix, not the registry size,
// so labels allocated after a load never collide with live ones even when
// decomposition left the label space sparse.
func TestStructureCounters(t *testing.T) {
	t.Parallel()
	c, err := picoquant.New(backend.NewMem(), 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// node_1 is deleted by the split: 2 live nodes named node_2, node_3,
	// 5 live edges named up to index_5.
	if _, _, err := c.AddSplitGate(picoquant.CNOT(), []int{1, 2}, 1e-6); err != nil {
		t.Fatalf("%+v", err)
	}

	var s picoquant.Structure
	b, err := json.Marshal(c.ToStructure())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if err := json.Unmarshal(b, &s); err != nil {
		t.Fatalf("%+v", err)
	}
	loaded, err := picoquant.FromStructure(backend.NewMem(), &s)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	label, err := loaded.AddGate(picoquant.Hadamard(), []int{1})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if label != "node_4" {
		t.Fatalf("%s", label)
	}
	n, err := loaded.Node(label)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if fmt.Sprintf("%v", n.Indices) != "[index_3 index_6]" {
		t.Fatalf("%v", n.Indices)
	}
}

func TestStructureNulls(t *testing.T) {
	t.Parallel()
	c, err := picoquant.New(backend.NewMem(), 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, _, err := c.AddSplitGate(picoquant.CNOT(), []int{1, 2}, 1e-6); err != nil {
		t.Fatalf("%+v", err)
	}
	s := c.ToStructure()

	// The open wire ends are null, the virtual bond's qubit is null.
	open, ok := s.Edges.Get("index_1")
	if !ok {
		t.Fatalf("%#v", s.Edges.Keys())
	}
	if open.Src != nil || open.Dst == nil || open.Qubit == nil || *open.Qubit != 1 {
		t.Fatalf("%#v", open)
	}
	bond, ok := s.Edges.Get("index_5")
	if !ok {
		t.Fatalf("%#v", s.Edges.Keys())
	}
	if !bond.Virtual || bond.Qubit != nil || bond.Src == nil || bond.Dst == nil {
		t.Fatalf("%#v", bond)
	}
}

func TestFromStructureInvalid(t *testing.T) {
	t.Parallel()
	c, err := picoquant.New(backend.NewMem(), 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	s := c.ToStructure()
	s.NumberQubits = 0
	if _, err := picoquant.FromStructure(backend.NewMem(), s); err == nil {
		t.Fatalf("nil")
	}

	s = c.ToStructure()
	s.InputQubits = s.InputQubits[:1]
	if _, err := picoquant.FromStructure(backend.NewMem(), s); err == nil {
		t.Fatalf("nil")
	}

	s = c.ToStructure()
	s.OutputQubits[1] = "index_9"
	if _, err := picoquant.FromStructure(backend.NewMem(), s); err == nil {
		t.Fatalf("nil")
	}
}

// The end to end scenario: a 3-qubit GHZ chain with bound inputs survives
// a save/load cycle intact.
func TestEndToEnd(t *testing.T) {
	t.Parallel()
	c := ghz3(t)

	// 3 gate nodes and 3 input boundary nodes; 3 initial wire edges plus
	// 1+2+2 gate output edges.
	if c.NumNodes() != 6 {
		t.Fatalf("%d", c.NumNodes())
	}
	if c.NumEdges() != 8 {
		t.Fatalf("%d", c.NumEdges())
	}
	if fmt.Sprintf("%v", c.OutputIndices()) != "[index_5 index_7 index_8]" {
		t.Fatalf("%v", c.OutputIndices())
	}

	b, err := json.Marshal(c.ToStructure())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	var s picoquant.Structure
	if err := json.Unmarshal(b, &s); err != nil {
		t.Fatalf("%+v", err)
	}
	loaded, err := picoquant.FromStructure(backend.NewMem(), &s)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if loaded.NumNodes() != 6 || loaded.NumEdges() != 8 || loaded.NumQubits() != 3 {
		t.Fatalf("%d %d %d", loaded.NumNodes(), loaded.NumEdges(), loaded.NumQubits())
	}
	for label, e := range c.Edges() {
		le, err := loaded.Edge(label)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if le != e {
			t.Fatalf("%s %#v %#v", label, le, e)
		}
	}
}
