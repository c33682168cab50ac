package datarow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bandwalk/internal/ir"
)

// Dataset is the data a report run reads: the main rows plus named datasets
// for sub-reports.
type Dataset struct {
	Rows     []ir.IRObject
	Datasets map[string][]ir.IRObject
}

// datasetFile is the YAML layout of a data file:
//
//	rows:
//	  - {customer: acme, order: 1}
//	datasets:
//	  lines:
//	    - {order: 1, sku: A-1}
type datasetFile struct {
	Rows     []map[string]any            `yaml:"rows" json:"rows"`
	Datasets map[string][]map[string]any `yaml:"datasets,omitempty" json:"datasets,omitempty"`
}

// LoadYAML reads a data file from disk.
func LoadYAML(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	ds, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ParseYAML parses a data file. Unknown top-level fields are rejected, and
// so are float values, which have no canonical form.
func ParseYAML(data []byte) (*Dataset, error) {
	var f datasetFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse data YAML: %w", err)
	}

	return fromFile(f)
}

func fromFile(f datasetFile) (*Dataset, error) {
	rows, err := RowsFromGo(f.Rows)
	if err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	ds := &Dataset{Rows: rows, Datasets: make(map[string][]ir.IRObject, len(f.Datasets))}

	names := make([]string, 0, len(f.Datasets))
	for name := range f.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows, err := RowsFromGo(f.Datasets[name])
		if err != nil {
			return nil, fmt.Errorf("datasets.%s: %w", name, err)
		}
		ds.Datasets[name] = rows
	}
	return ds, nil
}

// datasetIR is the canonical shape of a dataset: the data file layout with
// every row in IR form.
func (d *Dataset) datasetIR() ir.IRObject {
	rows := make(ir.IRArray, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = r
	}
	named := make(ir.IRObject, len(d.Datasets))
	for name, ds := range d.Datasets {
		arr := make(ir.IRArray, len(ds))
		for i, r := range ds {
			arr[i] = r
		}
		named[name] = arr
	}
	return ir.IRObject{"rows": rows, "datasets": named}
}

// MarshalCanonical encodes the dataset as canonical JSON. ParseJSON reverses
// it.
func (d *Dataset) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(d.datasetIR())
}

// Hash returns the dataset digest recorded with runs. Named datasets are
// part of the digest.
func (d *Dataset) Hash() (string, error) {
	return ir.Digest(ir.DomainDataset, d.datasetIR())
}

// ParseJSON decodes a dataset written by MarshalCanonical.
func ParseJSON(data []byte) (*Dataset, error) {
	var f datasetFile
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse data JSON: %w", err)
	}
	return fromFile(f)
}

// RowsFromGo converts decoded YAML or JSON rows to IR objects.
func RowsFromGo(raw []map[string]any) ([]ir.IRObject, error) {
	rows := make([]ir.IRObject, 0, len(raw))
	for i, r := range raw {
		obj, err := ir.ObjectFromGo(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, obj)
	}
	return rows, nil
}
