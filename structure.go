package picoquant

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Structure is the structural document of a circuit: its full topology
// with tensor payloads excluded. The field names and null semantics below
// are normative for any tool that inspects saved graphs, and both the JSON
// and YAML renderings keep registry insertion order. Marshal with
// encoding/json or gopkg.in/yaml.v3 directly.
type Structure struct {
	NumberQubits int                        `json:"number_qubits" yaml:"number_qubits"`
	Edges        *OrderedMap[EdgeStructure] `json:"edges" yaml:"edges"`
	Nodes        *OrderedMap[NodeStructure] `json:"nodes" yaml:"nodes"`
	InputQubits  []string                   `json:"input_qubits" yaml:"input_qubits"`
	OutputQubits []string                   `json:"output_qubits" yaml:"output_qubits"`
}

// EdgeStructure is the serialized form of an Edge. Src and Dst are null
// when that end is open, and Qubit is null for virtual bonds.
type EdgeStructure struct {
	Src     *string `json:"src" yaml:"src"`
	Dst     *string `json:"dst" yaml:"dst"`
	Qubit   *int    `json:"qubit" yaml:"qubit"`
	Virtual bool    `json:"virtual" yaml:"virtual"`
}

// NodeStructure is the serialized form of a Node.
type NodeStructure struct {
	Indices   []string `json:"indices" yaml:"indices"`
	DataLabel string   `json:"data_label" yaml:"data_label"`
}

// ToStructure captures the circuit's topology.
func (c *Circuit) ToStructure() *Structure {
	s := &Structure{
		NumberQubits: c.NumQubits(),
		Edges:        NewOrderedMap[EdgeStructure](),
		Nodes:        NewOrderedMap[NodeStructure](),
		InputQubits:  c.InputIndices(),
		OutputQubits: c.OutputIndices(),
	}
	for label, e := range c.edges.All() {
		es := EdgeStructure{Virtual: e.Virtual}
		if e.Src != "" {
			src := e.Src
			es.Src = &src
		}
		if e.Dst != "" {
			dst := e.Dst
			es.Dst = &dst
		}
		if e.Qubit != 0 {
			q := e.Qubit
			es.Qubit = &q
		}
		s.Edges.Set(label, es)
	}
	for label, n := range c.nodes.All() {
		s.Nodes.Set(label, NodeStructure{
			Indices:   append([]string(nil), n.Indices...),
			DataLabel: n.DataLabel,
		})
	}
	return s
}

// FromStructure rebuilds a circuit from its structural document, attached
// to b for payload access. Payloads themselves are not restored; the
// caller is responsible for the backend holding whatever data labels the
// document references.
func FromStructure(b Backend, s *Structure) (*Circuit, error) {
	if s.NumberQubits < 1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "%d", s.NumberQubits)
	}
	if len(s.InputQubits) != s.NumberQubits || len(s.OutputQubits) != s.NumberQubits {
		return nil, errors.Wrapf(ErrLengthMismatch, "%d %d %d", s.NumberQubits, len(s.InputQubits), len(s.OutputQubits))
	}

	c := &Circuit{
		backend:  b,
		counters: make(map[string]int),
		nodes:    NewOrderedMap[*Node](),
		edges:    NewOrderedMap[*Edge](),
		inputs:   make([]string, 0, s.NumberQubits),
		outputs:  make([]string, 0, s.NumberQubits),
	}
	for label, es := range s.Edges.All() {
		e := &Edge{Virtual: es.Virtual}
		if es.Src != nil {
			e.Src = *es.Src
		}
		if es.Dst != nil {
			e.Dst = *es.Dst
		}
		if es.Qubit != nil {
			e.Qubit = *es.Qubit
		}
		c.edges.Set(label, e)
	}
	for label, ns := range s.Nodes.All() {
		c.nodes.Set(label, &Node{
			Indices:   append([]string(nil), ns.Indices...),
			DataLabel: ns.DataLabel,
		})
	}
	for _, idx := range s.InputQubits {
		if _, ok := c.edges.Get(idx); !ok {
			return nil, errors.Wrapf(ErrUnknownIndex, "%s", idx)
		}
		c.inputs = append(c.inputs, idx)
	}
	for _, idx := range s.OutputQubits {
		if _, ok := c.edges.Get(idx); !ok {
			return nil, errors.Wrapf(ErrUnknownIndex, "%s", idx)
		}
		c.outputs = append(c.outputs, idx)
	}

	// Counters resume from the maximum numeric suffix, not the entry
	// count: the label space is sparse after decomposition deletes nodes,
	// and resuming from the count would reissue live labels.
	c.counters[kindIndex] = maxSuffix(c.edges.Keys())
	c.counters[kindNode] = maxSuffix(c.nodes.Keys())
	return c, nil
}

// maxSuffix returns the largest _<n> suffix among labels. Labels without
// a numeric suffix, such as caller-supplied factor labels, do not count.
func maxSuffix(labels []string) int {
	m := 0
	for _, label := range labels {
		i := strings.LastIndexByte(label, '_')
		if i < 0 {
			continue
		}
		n, err := strconv.Atoi(label[i+1:])
		if err != nil || n < 0 {
			continue
		}
		m = max(m, n)
	}
	return m
}
