// internal/ord/types.go

// Package ord normalizes raw Open Reaction Database records into a flat,
// name-labelled schema. The raw records are the protobuf-js objects the ORD
// web UI prints in its "View Full Record" modal.
package ord

import (
	"encoding/json"
	"fmt"
)

// Reaction is one normalized reaction. It is immutable once built.
type Reaction struct {
	ReactionID string     `json:"reaction_id" yaml:"reaction_id"`
	Success    bool       `json:"success" yaml:"success"`
	Inputs     []InputTab `json:"inputsMap" yaml:"inputsMap"`
	Outcomes   []Product  `json:"outcomes" yaml:"outcomes"`
}

// InputTab is one named input group. It serializes as a two element array
// [name, {"components": [...]}] to keep the shape of the upstream inputsMap.
type InputTab struct {
	Name       string
	Components []Component
}

type tabBody struct {
	Components []Component `json:"components" yaml:"components"`
}

// MarshalJSON implements json.Marshaler.
func (t InputTab) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{t.Name, tabBody{Components: nonNil(t.Components)}})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *InputTab) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("input tab: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("input tab: expected 2 elements, got %d", len(pair))
	}
	var body tabBody
	if err := json.Unmarshal(pair[0], &t.Name); err != nil {
		return fmt.Errorf("input tab name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &body); err != nil {
		return fmt.Errorf("input tab body: %w", err)
	}
	t.Components = body.Components
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t InputTab) MarshalYAML() (interface{}, error) {
	return []interface{}{t.Name, tabBody{Components: nonNil(t.Components)}}, nil
}

// Component is a normalized input component.
type Component struct {
	Identifiers  []Identifier `json:"identifiers" yaml:"identifiers"`
	Amount       Amount       `json:"amount" yaml:"amount"`
	ReactionRole string       `json:"reaction_role" yaml:"reaction_role"`
}

// Identifier is a compound identifier with its type spelled out.
type Identifier struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// Amount holds at most one of moles, volume or mass. An empty Amount
// serializes as {}.
type Amount struct {
	Moles  *Quantity `json:"moles,omitempty" yaml:"moles,omitempty"`
	Volume *Quantity `json:"volume,omitempty" yaml:"volume,omitempty"`
	Mass   *Quantity `json:"mass,omitempty" yaml:"mass,omitempty"`
}

// Kind returns "moles", "volume", "mass" or "" for an empty amount.
func (a Amount) Kind() string {
	switch {
	case a.Moles != nil:
		return "moles"
	case a.Volume != nil:
		return "volume"
	case a.Mass != nil:
		return "mass"
	default:
		return ""
	}
}

// Quantity returns the populated quantity, or nil.
func (a Amount) Quantity() *Quantity {
	switch {
	case a.Moles != nil:
		return a.Moles
	case a.Volume != nil:
		return a.Volume
	default:
		return a.Mass
	}
}

// Quantity is a value with its unit name. Value is nil when upstream omitted it.
type Quantity struct {
	Value *float64 `json:"value" yaml:"value"`
	Units string   `json:"units" yaml:"units"`
}

// Product is a normalized outcome product.
type Product struct {
	Identifiers      []Identifier  `json:"identifiers" yaml:"identifiers"`
	ReactionRole     string        `json:"reaction_role" yaml:"reaction_role"`
	IsDesiredProduct bool          `json:"is_desired_product" yaml:"is_desired_product"`
	Measurements     []Measurement `json:"measurements" yaml:"measurements"`
}

// Measurement is a product measurement. Type keeps the raw ORD
// ProductMeasurement code.
type Measurement struct {
	Type    *int      `json:"type" yaml:"type"`
	Details *string   `json:"details" yaml:"details"`
	Mass    *Quantity `json:"mass,omitempty" yaml:"mass,omitempty"`
}

func nonNil(c []Component) []Component {
	if c == nil {
		return []Component{}
	}
	return c
}
