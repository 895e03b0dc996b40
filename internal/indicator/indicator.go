package indicator

import "fmt"

const (
	Min = 0
	Max = 100
)

// Kind identifies one of the four tracked indicators.
type Kind int

const (
	Inclusion Kind = iota
	Responsibility
	Sustainability
	BigTechDependence

	numKinds
)

var kindNames = [numKinds]string{
	Inclusion:         "inclusion",
	Responsibility:    "responsibility",
	Sustainability:    "sustainability",
	BigTechDependence: "bigTechDependence",
}

// Kinds returns every indicator in slot order.
func Kinds() []Kind {
	return []Kind{Inclusion, Responsibility, Sustainability, BigTechDependence}
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("indicator(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || k >= numKinds {
		return nil, fmt.Errorf("unknown indicator %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown indicator %q", s)
}

// Indicators is the bounded metric state. Every write path clamps to [Min, Max].
type Indicators struct {
	Inclusion         int `json:"inclusion" yaml:"inclusion"`
	Responsibility    int `json:"responsibility" yaml:"responsibility"`
	Sustainability    int `json:"sustainability" yaml:"sustainability"`
	BigTechDependence int `json:"bigTechDependence" yaml:"big_tech_dependence"`
}

// Default is the neutral starting configuration.
func Default() Indicators {
	return Indicators{
		Inclusion:         50,
		Responsibility:    50,
		Sustainability:    50,
		BigTechDependence: 70,
	}
}

func Clamp(v int) int {
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return v
}

func (in Indicators) Get(k Kind) int {
	switch k {
	case Inclusion:
		return in.Inclusion
	case Responsibility:
		return in.Responsibility
	case Sustainability:
		return in.Sustainability
	case BigTechDependence:
		return in.BigTechDependence
	}
	panic(fmt.Sprintf("indicator: unknown kind %d", int(k)))
}

// With returns a copy with k set to v (clamped).
func (in Indicators) With(k Kind, v int) Indicators {
	v = Clamp(v)
	switch k {
	case Inclusion:
		in.Inclusion = v
	case Responsibility:
		in.Responsibility = v
	case Sustainability:
		in.Sustainability = v
	case BigTechDependence:
		in.BigTechDependence = v
	default:
		panic(fmt.Sprintf("indicator: unknown kind %d", int(k)))
	}
	return in
}

func (in Indicators) Clamped() Indicators {
	return Indicators{
		Inclusion:         Clamp(in.Inclusion),
		Responsibility:    Clamp(in.Responsibility),
		Sustainability:    Clamp(in.Sustainability),
		BigTechDependence: Clamp(in.BigTechDependence),
	}
}

// Apply adds d to every field and clamps each one independently.
func (in Indicators) Apply(d Delta) Indicators {
	out := in
	for _, k := range Kinds() {
		out = out.With(k, in.Get(k)+d[k])
	}
	return out
}

// Valid reports whether every field already sits inside [Min, Max].
func (in Indicators) Valid() bool {
	return in == in.Clamped()
}

// Patch is a partial absolute update. Nil fields are left untouched.
type Patch struct {
	Inclusion         *int `json:"inclusion,omitempty"`
	Responsibility    *int `json:"responsibility,omitempty"`
	Sustainability    *int `json:"sustainability,omitempty"`
	BigTechDependence *int `json:"bigTechDependence,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p.Inclusion == nil && p.Responsibility == nil && p.Sustainability == nil && p.BigTechDependence == nil
}

func (in Indicators) Patch(p Patch) Indicators {
	out := in
	if p.Inclusion != nil {
		out = out.With(Inclusion, *p.Inclusion)
	}
	if p.Responsibility != nil {
		out = out.With(Responsibility, *p.Responsibility)
	}
	if p.Sustainability != nil {
		out = out.With(Sustainability, *p.Sustainability)
	}
	if p.BigTechDependence != nil {
		out = out.With(BigTechDependence, *p.BigTechDependence)
	}
	return out.Clamped()
}
