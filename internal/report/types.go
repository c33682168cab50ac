package report

import (
	"encoding/json"
	"fmt"
)

// BeforeFirstGroup is the group index of a state that has not entered any group.
const BeforeFirstGroup = -1

// GroupKind classifies a group in the stack.
type GroupKind int

const (
	// Relational is an ordinary break-on-value group.
	Relational GroupKind = iota
	// Crosstab is the table group that opens a crosstab section.
	Crosstab
	// CrosstabRow is a row axis group inside a crosstab.
	CrosstabRow
	// CrosstabColumn is a column axis group inside a crosstab.
	CrosstabColumn
)

var groupKindNames = map[GroupKind]string{
	Relational:     "relational",
	Crosstab:       "crosstab",
	CrosstabRow:    "crosstab-row",
	CrosstabColumn: "crosstab-column",
}

func (k GroupKind) String() string {
	if s, ok := groupKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("GroupKind(%d)", int(k))
}

// ParseGroupKind maps a kind name to its GroupKind.
func ParseGroupKind(s string) (GroupKind, error) {
	for k, name := range groupKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown group kind %q", s)
}

// MarshalJSON encodes the kind by name.
func (k GroupKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *GroupKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseGroupKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsCrosstabAxis reports whether the kind is a row or column axis.
func (k GroupKind) IsCrosstabAxis() bool {
	return k == CrosstabRow || k == CrosstabColumn
}

// Band is a region of content owned by the layout collaborator. The engine
// only carries it so listeners can find the band belonging to an event.
type Band struct {
	Name string `json:"name"`
}

// Group is one level of the group stack.
type Group struct {
	Name   string    `json:"name"`
	Kind   GroupKind `json:"kind"`
	Fields []string  `json:"fields,omitempty"`

	// Header and Footer are optional; events fire whether or not they exist.
	Header *Band `json:"header,omitempty"`
	Footer *Band `json:"footer,omitempty"`

	// PrintSummary requests a summary emission after the last instance of a
	// crosstab column group within its parent axis.
	PrintSummary bool `json:"print_summary,omitempty"`
}

// SubReport is a banded sub-report attached to the details band.
type SubReport struct {
	Name       string      `json:"name"`
	Definition *Definition `json:"definition"`

	// Parameters are parent-row fields copied into the sub-report query.
	// The sub-report sees only dataset rows whose parameter fields equal the
	// parent row's values.
	Parameters []string `json:"parameters,omitempty"`

	// Dataset names the data the sub-report reads. Defaults to Name.
	Dataset string `json:"dataset,omitempty"`
}

// DatasetName returns the dataset the sub-report reads.
func (s SubReport) DatasetName() string {
	if s.Dataset != "" {
		return s.Dataset
	}
	return s.Name
}

// Definition is the static report tree.
type Definition struct {
	Name       string      `json:"name"`
	Groups     []Group     `json:"groups,omitempty"`
	Details    *Band       `json:"details,omitempty"`
	SubReports []SubReport `json:"subreports,omitempty"`
}
