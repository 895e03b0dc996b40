package indicator

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Delta holds one signed change per indicator, indexed by Kind.
// The zero value is the no-op delta.
type Delta [numKinds]int

func (d Delta) Get(k Kind) int { return d[k] }

func (d Delta) Add(o Delta) Delta {
	for i := range d {
		d[i] += o[i]
	}
	return d
}

func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Map returns only the non-zero slots keyed by indicator name.
func (d Delta) Map() map[string]int {
	out := map[string]int{}
	for _, k := range Kinds() {
		if d[k] != 0 {
			out[k.String()] = d[k]
		}
	}
	return out
}

// Between returns the per-field difference after minus before.
func Between(before, after Indicators) Delta {
	var d Delta
	for _, k := range Kinds() {
		d[k] = after.Get(k) - before.Get(k)
	}
	return d
}

func (d Delta) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

func (d *Delta) UnmarshalJSON(b []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return d.fromMap(raw)
}

// UnmarshalYAML accepts the same keyed form as JSON, e.g. {inclusion: 5}.
func (d *Delta) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]int
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.fromMap(raw)
}

func (d *Delta) fromMap(raw map[string]int) error {
	var out Delta
	for name, v := range raw {
		k, err := ParseKind(name)
		if err != nil {
			return fmt.Errorf("delta: %w", err)
		}
		out[k] = v
	}
	*d = out
	return nil
}
