package backend

import (
	"fmt"
	"os"
	"testing"

	"github.com/fumin/tensor"
)

func TestDiskStoreFetch(t *testing.T) {
	t.Parallel()
	tests := []struct {
		label   string
		payload *tensor.Dense
	}{
		{label: "node_1", payload: tensor.T2([][]complex64{
			{1, 0},
			{0, 1i},
		})},
		{label: "node_2", payload: func() *tensor.Dense {
			v := tensor.Zeros(2)
			v.SetAt([]int{1}, 1)
			return v
		}()},
		{label: "node_3", payload: func() *tensor.Dense {
			g := tensor.Zeros(2, 2, 2, 2)
			for i1 := range 2 {
				for i2 := range 2 {
					g.SetAt([]int{i1, i2, i1, i2 ^ i1}, 1)
				}
			}
			return g
		}()},
		// All-zero payloads still round-trip with their shape.
		{label: "node_4", payload: tensor.Zeros(3, 2)},
	}
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)
	d, err := NewDisk(dir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer d.Close()

	for _, test := range tests {
		if err := d.Store(test.label, test.payload); err != nil {
			t.Fatalf("%+v", err)
		}
	}
	for _, test := range tests {
		got, err := d.Fetch(test.label)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if fmt.Sprintf("%v", got.Shape()) != fmt.Sprintf("%v", test.payload.Shape()) {
			t.Fatalf("%s %v, expected %v", test.label, got.Shape(), test.payload.Shape())
		}
		for ijk, v := range got.All() {
			if w := test.payload.At(ijk...); v != w {
				t.Fatalf("%s %v %v, expected %v", test.label, ijk, v, w)
			}
		}
	}

	if _, err := d.Fetch("node_99"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDiskStoreOverwrite(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)
	d, err := NewDisk(dir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer d.Close()

	if err := d.Store("node_1", tensor.T2([][]complex64{
		{1, 2},
		{3, 4},
	})); err != nil {
		t.Fatalf("%+v", err)
	}
	want := tensor.Zeros(3)
	want.SetAt([]int{2}, 5i)
	if err := d.Store("node_1", want); err != nil {
		t.Fatalf("%+v", err)
	}

	got, err := d.Fetch("node_1")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if fmt.Sprintf("%v", got.Shape()) != "[3]" {
		t.Fatalf("%v", got.Shape())
	}
	for ijk, v := range got.All() {
		if w := want.At(ijk...); v != w {
			t.Fatalf("%v %v, expected %v", ijk, v, w)
		}
	}
}

// Decompose through Disk must match Decompose through Mem.
func TestDiskDecompose(t *testing.T) {
	t.Parallel()
	cnot := tensor.Zeros(2, 2, 2, 2)
	for i1 := range 2 {
		for i2 := range 2 {
			cnot.SetAt([]int{i1, i2, i1, i2 ^ i1}, 1)
		}
	}

	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)
	d, err := NewDisk(dir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer d.Close()
	m := NewMem()

	for _, b := range []interface {
		Store(string, *tensor.Dense) error
		Decompose(string, []int, []int, float32, string, string) (int, error)
	}{d, m} {
		if err := b.Store("node_1", cnot); err != nil {
			t.Fatalf("%+v", err)
		}
		chi, err := b.Decompose("node_1", []int{0, 2}, []int{1, 3}, 0.2, "node_2", "node_3")
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if chi != 2 {
			t.Fatalf("%d", chi)
		}
	}

	for _, label := range []string{"node_2", "node_3"} {
		dt, err := d.Fetch(label)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		mt, err := m.Fetch(label)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if fmt.Sprintf("%v", dt.Shape()) != fmt.Sprintf("%v", mt.Shape()) {
			t.Fatalf("%s %v, expected %v", label, dt.Shape(), mt.Shape())
		}
		for ijk, v := range dt.All() {
			if w := mt.At(ijk...); v != w {
				t.Fatalf("%s %v %v, expected %v", label, ijk, v, w)
			}
		}
	}
}
