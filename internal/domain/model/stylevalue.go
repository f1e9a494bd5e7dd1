package model

import (
	"encoding/json"
	"fmt"
)

// StyleValue is a tagged value from the battle style metadata. Cleaned
// battle files carry either a raw integer count ("bold_count_a": 3) or a
// per-kind breakdown ("header_count_a": {"h1": 1, "h2": 2}); the breakdown
// reduces to a scalar by summing its values.
type StyleValue struct {
	scalar int
	counts map[string]int
	isMap  bool
}

// IntValue builds a StyleValue holding a raw count.
func IntValue(v int) StyleValue {
	return StyleValue{scalar: v}
}

// CountsValue builds a StyleValue holding a per-kind breakdown.
func CountsValue(counts map[string]int) StyleValue {
	c := make(map[string]int, len(counts))
	for k, v := range counts {
		c[k] = v
	}
	return StyleValue{counts: c, isMap: true}
}

// Scalar reduces the value to a single count.
func (v StyleValue) Scalar() int {
	if !v.isMap {
		return v.scalar
	}
	sum := 0
	for _, n := range v.counts {
		sum += n
	}
	return sum
}

// UnmarshalJSON accepts either an integer or an object of integers.
func (v *StyleValue) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*v = IntValue(n)
		return nil
	}
	var counts map[string]int
	if err := json.Unmarshal(data, &counts); err == nil {
		*v = CountsValue(counts)
		return nil
	}
	return fmt.Errorf("style value must be an integer or a map of integers: %s", data)
}

// MarshalJSON writes the value back in its original shape.
func (v StyleValue) MarshalJSON() ([]byte, error) {
	if v.isMap {
		return json.Marshal(v.counts)
	}
	return json.Marshal(v.scalar)
}
