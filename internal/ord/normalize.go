// internal/ord/normalize.go
package ord

import (
	"encoding/json"
	"math"
)

// Outcome products are always labelled with this ReactionRole code.
const roleProduct = 8

// Normalize flattens a fetched reaction envelope of the form
// {"reaction_id": ..., "data": {...}, "success": bool}.
//
// It is total: missing or mistyped optional fields produce empty output
// fields. The result is absent only when raw is not a mapping or has no
// mapping under "data".
func Normalize(raw interface{}) (*Reaction, bool) {
	envelope, ok := raw.(map[string]interface{})
	if !ok || envelope == nil {
		return nil, false
	}
	data, ok := envelope["data"].(map[string]interface{})
	if !ok {
		return nil, false
	}

	r := &Reaction{
		ReactionID: stringField(data, "reactionId"),
		Success:    true,
		Inputs:     []InputTab{},
		Outcomes:   []Product{},
	}
	if success, ok := envelope["success"].(bool); ok {
		r.Success = success
	}

	for _, entry := range sliceField(data, "inputsMap") {
		pair, ok := entry.([]interface{})
		if !ok || len(pair) < 2 {
			continue
		}
		name, _ := pair[0].(string)
		body, _ := pair[1].(map[string]interface{})

		tab := InputTab{Name: name, Components: []Component{}}
		for _, c := range sliceField(body, "componentsList") {
			component, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			tab.Components = append(tab.Components, normalizeComponent(component))
		}
		r.Inputs = append(r.Inputs, tab)
	}

	for _, o := range sliceField(data, "outcomesList") {
		outcome, ok := o.(map[string]interface{})
		if !ok {
			continue
		}
		for _, p := range sliceField(outcome, "productsList") {
			product, ok := p.(map[string]interface{})
			if !ok {
				continue
			}
			r.Outcomes = append(r.Outcomes, normalizeProduct(product))
		}
	}

	return r, true
}

// NormalizeJSON decodes an envelope and normalizes it. Undecodable input is absent.
func NormalizeJSON(data []byte) (*Reaction, bool) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	return Normalize(raw)
}

func normalizeComponent(c map[string]interface{}) Component {
	role := UnknownName
	if code, ok := intCode(c["reactionRole"]); ok {
		role = ReactionRole.Lookup(code)
	}
	return Component{
		Identifiers:  normalizeIdentifiers(c),
		Amount:       normalizeAmount(mapField(c, "amount")),
		ReactionRole: role,
	}
}

func normalizeProduct(p map[string]interface{}) Product {
	desired, _ := p["isDesiredProduct"].(bool)
	out := Product{
		Identifiers:      normalizeIdentifiers(p),
		ReactionRole:     ReactionRole.Lookup(roleProduct),
		IsDesiredProduct: desired,
		Measurements:     []Measurement{},
	}

	for _, m := range sliceField(p, "measurementsList") {
		meas, ok := m.(map[string]interface{})
		if !ok {
			continue
		}
		nm := Measurement{}
		if code, ok := intCode(meas["type"]); ok {
			nm.Type = &code
		}
		if details, ok := meas["details"].(string); ok {
			nm.Details = &details
		}
		if mass := mapField(mapField(meas, "amount"), "mass"); mass != nil {
			nm.Mass = quantity(mass, MassUnit)
		}
		out.Measurements = append(out.Measurements, nm)
	}
	return out
}

// normalizeIdentifiers keeps every identifier, whatever its type.
func normalizeIdentifiers(item map[string]interface{}) []Identifier {
	ids := []Identifier{}
	for _, i := range sliceField(item, "identifiersList") {
		identifier, ok := i.(map[string]interface{})
		if !ok {
			continue
		}
		ids = append(ids, Identifier{
			Type:  codeName(identifier["type"], IdentifierType),
			Value: stringField(identifier, "value"),
		})
	}
	return ids
}

// normalizeAmount picks moles, then volume, then mass.
func normalizeAmount(amount map[string]interface{}) Amount {
	if amount == nil {
		return Amount{}
	}
	if m := mapField(amount, "moles"); m != nil {
		return Amount{Moles: quantity(m, MoleUnit)}
	}
	if v := mapField(amount, "volume"); v != nil {
		return Amount{Volume: quantity(v, VolumeUnit)}
	}
	if m := mapField(amount, "mass"); m != nil {
		return Amount{Mass: quantity(m, MassUnit)}
	}
	return Amount{}
}

func quantity(q map[string]interface{}, units EnumTable) *Quantity {
	out := &Quantity{Units: codeName(q["units"], units)}
	if v, ok := q["value"].(float64); ok {
		out.Value = &v
	}
	return out
}

// codeName resolves an enum field that defaults to 0 when absent.
func codeName(v interface{}, table EnumTable) string {
	if v == nil {
		return table.Lookup(0)
	}
	code, ok := intCode(v)
	if !ok {
		return UnknownName
	}
	return table.Lookup(code)
}

// intCode accepts the numeric shapes a decoded JSON value can take.
func intCode(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i > math.MaxInt32 || i < math.MinInt32 {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func mapField(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]interface{})
	return v
}

func sliceField(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]interface{})
	return v
}

func stringField(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}
