// Command run builds an n-qubit GHZ preparation circuit as a tensor
// network, optionally pre-splitting its two-qubit gates into bonded
// single-qubit factors, and saves the structural document to a run
// directory.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ICHEC/picoquant"
	"github.com/ICHEC/picoquant/backend"
)

const (
	fnameJSON = "structure.json"
	fnameYAML = "structure.yaml"
)

var (
	runDir    = flag.String("d", filepath.Join("runs", "picoquant"), "run directory")
	numQubits = flag.Int("n", 3, "number of qubits")
	split     = flag.Bool("split", false, "pre-split two-qubit gates")
	threshold = flag.Float64("threshold", 1e-6, "singular value truncation threshold")
)

func build(b picoquant.Backend) (*picoquant.Circuit, error) {
	c, err := picoquant.New(b, *numQubits)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if _, err := c.AddGate(picoquant.Hadamard(), []int{1}); err != nil {
		return nil, errors.Wrap(err, "")
	}
	for q := 1; q < *numQubits; q++ {
		if *split {
			if _, _, err := c.AddSplitGate(picoquant.CNOT(), []int{q, q + 1}, float32(*threshold)); err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("%d", q))
			}
		} else {
			if _, err := c.AddGate(picoquant.CNOT(), []int{q, q + 1}); err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("%d", q))
			}
		}
	}

	zeros := make([]byte, *numQubits)
	for i := range zeros {
		zeros[i] = '0'
	}
	if err := c.AddInput(string(zeros)); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return c, nil
}

func save(dir string, s *picoquant.Structure) error {
	jb, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(filepath.Join(dir, fnameJSON), jb, 0644); err != nil {
		return errors.Wrap(err, "")
	}

	yb, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(filepath.Join(dir, fnameYAML), yb, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	store, err := backend.NewDisk(*runDir)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer store.Close()

	c, err := build(store)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := save(*runDir, c.ToStructure()); err != nil {
		return errors.Wrap(err, "")
	}

	log.Printf("%d qubits, %d nodes, %d edges", c.NumQubits(), c.NumNodes(), c.NumEdges())
	return nil
}
