package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/bandwalk/internal/ir"
)

// MarshalDefinition encodes def as canonical JSON. This is the form stored
// with a run; UnmarshalDefinition reverses it.
func MarshalDefinition(def *Definition) ([]byte, error) {
	v, err := definitionIR(def)
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(v)
}

// UnmarshalDefinition decodes a definition written by MarshalDefinition.
func UnmarshalDefinition(data []byte) (*Definition, error) {
	var def Definition
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	return &def, nil
}

// Digest returns the definition digest recorded with runs.
func (d *Definition) Digest() (string, error) {
	v, err := definitionIR(d)
	if err != nil {
		return "", err
	}
	return ir.Digest(ir.DomainDefinition, v)
}

// definitionIR routes the definition through its JSON tags into IR form.
func definitionIR(def *Definition) (ir.IRValue, error) {
	if def == nil {
		return nil, fmt.Errorf("encode definition: nil definition")
	}
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var generic any
	if err := decoder.Decode(&generic); err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	v, err := ir.FromGo(generic)
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	return v, nil
}
