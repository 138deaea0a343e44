// internal/ord/normalize_test.go
package ord

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ptr[T any](v T) *T { return &v }

func decode(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("invalid fixture: %v", err)
	}
	return v
}

const singleComponentFixture = `{
  "data": {
    "reactionId": "ord-1",
    "inputsMap": [["Tab1", {"componentsList": [{
      "identifiersList": [{"type": 2, "value": "CCO"}],
      "amount": {"moles": {"value": 1.0, "units": 1}},
      "reactionRole": 1
    }]}]],
    "outcomesList": []
  },
  "success": true
}`

func TestNormalize_SingleComponent(t *testing.T) {
	got, ok := Normalize(decode(t, singleComponentFixture))
	if !ok {
		t.Fatal("expected a normalized reaction")
	}

	want := &Reaction{
		ReactionID: "ord-1",
		Success:    true,
		Inputs: []InputTab{{
			Name: "Tab1",
			Components: []Component{{
				Identifiers:  []Identifier{{Type: "SMILES", Value: "CCO"}},
				Amount:       Amount{Moles: &Quantity{Value: ptr(1.0), Units: "MOLE"}},
				ReactionRole: "REACTANT",
			}},
		}},
		Outcomes: []Product{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_Absent(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
	}{
		{"nil", nil},
		{"empty envelope", map[string]interface{}{}},
		{"not a mapping", []interface{}{"data"}},
		{"string", "data"},
		{"data is null", map[string]interface{}{"data": nil}},
		{"data is a list", map[string]interface{}{"data": []interface{}{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r, ok := Normalize(tt.raw); ok || r != nil {
				t.Errorf("expected absent result, got %+v", r)
			}
		})
	}
}

func TestNormalize_UnknownRole(t *testing.T) {
	raw := decode(t, `{"data": {"inputsMap": [["T", {"componentsList": [{"reactionRole": 999}]}]]}}`)
	r, ok := Normalize(raw)
	if !ok {
		t.Fatal("expected a normalized reaction")
	}
	if got := r.Inputs[0].Components[0].ReactionRole; got != "UNKNOWN" {
		t.Errorf("expected UNKNOWN role, got %q", got)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	raw := decode(t, `{"data": {
		"inputsMap": [["T", {"componentsList": [{
			"identifiersList": [{"value": "ethanol"}],
			"amount": {"mass": {"value": 2.5}}
		}]}]],
		"outcomesList": [{"productsList": [{}]}]
	}}`)

	r, ok := Normalize(raw)
	if !ok {
		t.Fatal("expected a normalized reaction")
	}
	if !r.Success {
		t.Error("expected success to default to true")
	}
	if r.ReactionID != "" {
		t.Errorf("expected empty reaction id, got %q", r.ReactionID)
	}

	c := r.Inputs[0].Components[0]
	if c.Identifiers[0].Type != "UNSPECIFIED" {
		t.Errorf("missing identifier type should be UNSPECIFIED, got %q", c.Identifiers[0].Type)
	}
	if c.ReactionRole != "UNKNOWN" {
		t.Errorf("missing role should be UNKNOWN, got %q", c.ReactionRole)
	}
	if c.Amount.Mass == nil || c.Amount.Mass.Units != "UNSPECIFIED" {
		t.Errorf("missing mass units should be UNSPECIFIED, got %+v", c.Amount.Mass)
	}

	p := r.Outcomes[0]
	if p.ReactionRole != "PRODUCT" || p.IsDesiredProduct {
		t.Errorf("unexpected product defaults: %+v", p)
	}
	if len(p.Identifiers) != 0 || len(p.Measurements) != 0 {
		t.Errorf("expected empty identifiers and measurements, got %+v", p)
	}
}

func TestNormalize_SuccessFromEnvelope(t *testing.T) {
	r, ok := Normalize(decode(t, `{"data": {}, "success": false}`))
	if !ok {
		t.Fatal("expected a normalized reaction")
	}
	if r.Success {
		t.Error("expected success=false to be carried over")
	}
}

func TestNormalize_AmountPriority(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   Amount
	}{
		{
			"moles wins over everything",
			`{"mass": {"value": 3, "units": 2}, "volume": {"value": 2, "units": 2}, "moles": {"value": 1, "units": 2}}`,
			Amount{Moles: &Quantity{Value: ptr(1.0), Units: "MILLIMOLE"}},
		},
		{
			"volume wins over mass",
			`{"mass": {"value": 3, "units": 2}, "volume": {"value": 2, "units": 4}}`,
			Amount{Volume: &Quantity{Value: ptr(2.0), Units: "NANOLITER"}},
		},
		{
			"mass alone",
			`{"mass": {"value": 3, "units": 3}}`,
			Amount{Mass: &Quantity{Value: ptr(3.0), Units: "MILLIGRAM"}},
		},
		{
			"unknown unit code",
			`{"mass": {"value": 3, "units": 42}}`,
			Amount{Mass: &Quantity{Value: ptr(3.0), Units: "UNKNOWN"}},
		},
		{
			"value missing",
			`{"volume": {"units": 1}}`,
			Amount{Volume: &Quantity{Units: "LITER"}},
		},
		{"no known kind", `{"percentage": {"value": 5}}`, Amount{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := decode(t, `{"data": {"inputsMap": [["T", {"componentsList": [{"amount": `+tt.amount+`}]}]]}}`)
			r, ok := Normalize(raw)
			if !ok {
				t.Fatal("expected a normalized reaction")
			}
			if diff := cmp.Diff(tt.want, r.Inputs[0].Components[0].Amount); diff != "" {
				t.Errorf("amount mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_AllIdentifierTypes(t *testing.T) {
	raw := decode(t, `{"data": {"inputsMap": [["T", {"componentsList": [{"identifiersList": [
		{"type": 0, "value": "a"}, {"type": 1, "value": "b"}, {"type": 2, "value": "c"},
		{"type": 3, "value": "d"}, {"type": 4, "value": "e"}, {"type": 5, "value": "f"},
		{"type": 6, "value": "g"}, {"type": 7, "value": "h"}, {"type": 8, "value": "i"},
		{"type": 9, "value": "j"}, {"type": "SMILES", "value": "k"}
	]}]}]]}}`)

	r, ok := Normalize(raw)
	if !ok {
		t.Fatal("expected a normalized reaction")
	}

	var types []string
	for _, id := range r.Inputs[0].Components[0].Identifiers {
		types = append(types, id.Type)
	}
	want := []string{
		"UNSPECIFIED", "CUSTOM", "SMILES", "INCHI", "MOLBLOCK", "FINGERPRINT",
		"NAME", "IUPAC_NAME", "CAS_NUMBER", "UNKNOWN", "UNKNOWN",
	}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("identifier types mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_TabOrderAndDuplicates(t *testing.T) {
	raw := decode(t, `{"data": {"inputsMap": [
		["solvent", {"componentsList": [{"reactionRole": 3}]}],
		["amine", {"componentsList": []}],
		["solvent", {"componentsList": [{"reactionRole": 2}]}],
		["broken"],
		["no body", null]
	]}}`)

	r, ok := Normalize(raw)
	if !ok {
		t.Fatal("expected a normalized reaction")
	}

	var names []string
	for _, tab := range r.Inputs {
		names = append(names, tab.Name)
	}
	if diff := cmp.Diff([]string{"solvent", "amine", "solvent", "no body"}, names); diff != "" {
		t.Errorf("tab order mismatch (-want +got):\n%s", diff)
	}
	if r.Inputs[0].Components[0].ReactionRole != "SOLVENT" || r.Inputs[2].Components[0].ReactionRole != "REAGENT" {
		t.Errorf("duplicate tabs were merged or reordered: %+v", r.Inputs)
	}
	if len(r.Inputs[3].Components) != 0 {
		t.Errorf("tab without body should have no components")
	}
}

func TestNormalize_Products(t *testing.T) {
	raw := decode(t, `{"data": {"outcomesList": [
		{"productsList": [{
			"identifiersList": [{"type": 2, "value": "CC(=O)O"}],
			"isDesiredProduct": true,
			"measurementsList": [
				{"type": 3, "details": "isolated", "amount": {"mass": {"value": 0.5, "units": 2}}},
				{"type": 6}
			]
		}]},
		{"productsList": [{"identifiersList": [{"type": 6, "value": "water"}]}]}
	]}}`)

	r, ok := Normalize(raw)
	if !ok {
		t.Fatal("expected a normalized reaction")
	}

	want := []Product{
		{
			Identifiers:      []Identifier{{Type: "SMILES", Value: "CC(=O)O"}},
			ReactionRole:     "PRODUCT",
			IsDesiredProduct: true,
			Measurements: []Measurement{
				{Type: ptr(3), Details: ptr("isolated"), Mass: &Quantity{Value: ptr(0.5), Units: "GRAM"}},
				{Type: ptr(6)},
			},
		},
		{
			Identifiers:  []Identifier{{Type: "NAME", Value: "water"}},
			ReactionRole: "PRODUCT",
			Measurements: []Measurement{},
		},
	}
	if diff := cmp.Diff(want, r.Outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_MalformedFieldsAbsorbed(t *testing.T) {
	raw := decode(t, `{"data": {
		"reactionId": 12,
		"inputsMap": {"not": "a list"},
		"outcomesList": [7, {"productsList": "nope"}, {"productsList": [3, {"measurementsList": [1, {"amount": {"mass": 5}}]}]}]
	}}`)

	r, ok := Normalize(raw)
	if !ok {
		t.Fatal("expected a normalized reaction")
	}
	if len(r.Inputs) != 0 {
		t.Errorf("expected no inputs, got %d", len(r.Inputs))
	}
	if len(r.Outcomes) != 1 || len(r.Outcomes[0].Measurements) != 1 {
		t.Fatalf("unexpected outcomes: %+v", r.Outcomes)
	}
	if r.Outcomes[0].Measurements[0].Mass != nil {
		t.Error("non-mapping mass should be dropped")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := decode(t, singleComponentFixture)
	first, _ := Normalize(raw)
	second, _ := Normalize(raw)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated normalization differs (-first +second):\n%s", diff)
	}
}

func TestNormalizeJSON(t *testing.T) {
	if _, ok := NormalizeJSON([]byte("{not json")); ok {
		t.Error("expected absent result for invalid JSON")
	}
	r, ok := NormalizeJSON([]byte(singleComponentFixture))
	if !ok || r.ReactionID != "ord-1" {
		t.Errorf("unexpected result: %+v, %v", r, ok)
	}
}

func TestReaction_JSONShape(t *testing.T) {
	r, _ := Normalize(decode(t, singleComponentFixture))
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	want := `{"reaction_id":"ord-1","success":true,"inputsMap":[["Tab1",{"components":[{"identifiers":[{"type":"SMILES","value":"CCO"}],"amount":{"moles":{"value":1,"units":"MOLE"}},"reaction_role":"REACTANT"}]}]],"outcomes":[]}`
	if string(data) != want {
		t.Errorf("unexpected JSON:\n got: %s\nwant: %s", data, want)
	}

	var back Reaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(r, &back); diff != "" {
		t.Errorf("decoded reaction mismatch (-want +got):\n%s", diff)
	}
}

func TestInputTab_EmptyComponentsSerializeAsList(t *testing.T) {
	data, err := json.Marshal(InputTab{Name: "empty"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `["empty",{"components":[]}]` {
		t.Errorf("got %s", data)
	}
}
