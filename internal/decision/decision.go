package decision

import (
	"errors"
	"fmt"
)

// ErrUnknownOption is returned for a value outside an axis enumeration.
var ErrUnknownOption = errors.New("unknown decision option")

// Axis names one policy choice made every simulated year.
type Axis string

const (
	AxisOSStrategy     Axis = "osStrategy"
	AxisHardwarePolicy Axis = "hardwarePolicy"
	AxisCloudStrategy  Axis = "cloudStrategy"
	AxisTraining       Axis = "training"
)

// Axes returns the axes in evaluation order.
func Axes() []Axis {
	return []Axis{AxisOSStrategy, AxisHardwarePolicy, AxisCloudStrategy, AxisTraining}
}

func ParseAxis(s string) (Axis, error) {
	for _, a := range Axes() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown decision axis %q", s)
}

type OSStrategy string

const (
	OSStatusQuo        OSStrategy = "statusQuo"
	OSPartialMigration OSStrategy = "partialMigration"
	OSMassMigration    OSStrategy = "massMigration"
)

type HardwarePolicy string

const (
	HardwareBuyNew    HardwarePolicy = "buyNew"
	HardwareRefurbish HardwarePolicy = "refurbish"
)

type CloudStrategy string

const (
	CloudProprietary CloudStrategy = "proprietary"
	CloudSovereign   CloudStrategy = "sovereign"
)

type Training string

const (
	TrainingNone    Training = "none"
	TrainingTeacher Training = "teacherTraining"
	TrainingClub    Training = "studentClub"
)

var options = map[Axis][]string{
	AxisOSStrategy:     {string(OSStatusQuo), string(OSPartialMigration), string(OSMassMigration)},
	AxisHardwarePolicy: {string(HardwareBuyNew), string(HardwareRefurbish)},
	AxisCloudStrategy:  {string(CloudProprietary), string(CloudSovereign)},
	AxisTraining:       {string(TrainingNone), string(TrainingTeacher), string(TrainingClub)},
}

// Options lists the closed enumeration for an axis. Nil for unknown axes.
func Options(a Axis) []string {
	src := options[a]
	if src == nil {
		return nil
	}
	return append([]string(nil), src...)
}

// Known reports whether option belongs to the axis enumeration.
func Known(a Axis, option string) bool {
	for _, o := range options[a] {
		if o == option {
			return true
		}
	}
	return false
}

func check(a Axis, v string) error {
	if !Known(a, v) {
		return fmt.Errorf("%w: %s=%q", ErrUnknownOption, a, v)
	}
	return nil
}

func ParseOSStrategy(s string) (OSStrategy, error) {
	if err := check(AxisOSStrategy, s); err != nil {
		return "", err
	}
	return OSStrategy(s), nil
}

func ParseHardwarePolicy(s string) (HardwarePolicy, error) {
	if err := check(AxisHardwarePolicy, s); err != nil {
		return "", err
	}
	return HardwarePolicy(s), nil
}

func ParseCloudStrategy(s string) (CloudStrategy, error) {
	if err := check(AxisCloudStrategy, s); err != nil {
		return "", err
	}
	return CloudStrategy(s), nil
}

func ParseTraining(s string) (Training, error) {
	if err := check(AxisTraining, s); err != nil {
		return "", err
	}
	return Training(s), nil
}

func (v *OSStrategy) UnmarshalText(b []byte) error {
	p, err := ParseOSStrategy(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

func (v *HardwarePolicy) UnmarshalText(b []byte) error {
	p, err := ParseHardwarePolicy(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

func (v *CloudStrategy) UnmarshalText(b []byte) error {
	p, err := ParseCloudStrategy(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

func (v *Training) UnmarshalText(b []byte) error {
	p, err := ParseTraining(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

// Decisions is one year's full set of policy choices.
type Decisions struct {
	OSStrategy     OSStrategy     `json:"osStrategy" yaml:"os_strategy"`
	HardwarePolicy HardwarePolicy `json:"hardwarePolicy" yaml:"hardware_policy"`
	CloudStrategy  CloudStrategy  `json:"cloudStrategy" yaml:"cloud_strategy"`
	Training       Training       `json:"training" yaml:"training"`
}

// StatusQuo is the "do nothing differently" choice on every axis.
func StatusQuo() Decisions {
	return Decisions{
		OSStrategy:     OSStatusQuo,
		HardwarePolicy: HardwareBuyNew,
		CloudStrategy:  CloudProprietary,
		Training:       TrainingNone,
	}
}

// Parse builds a Decisions record from raw strings keyed by axis name.
func Parse(raw map[string]string) (Decisions, error) {
	var d Decisions
	for _, a := range Axes() {
		v, ok := raw[string(a)]
		if !ok {
			return Decisions{}, fmt.Errorf("%w: %s missing", ErrUnknownOption, a)
		}
		if err := check(a, v); err != nil {
			return Decisions{}, err
		}
		d = d.with(a, v)
	}
	return d, nil
}

func (d Decisions) with(a Axis, v string) Decisions {
	switch a {
	case AxisOSStrategy:
		d.OSStrategy = OSStrategy(v)
	case AxisHardwarePolicy:
		d.HardwarePolicy = HardwarePolicy(v)
	case AxisCloudStrategy:
		d.CloudStrategy = CloudStrategy(v)
	case AxisTraining:
		d.Training = Training(v)
	}
	return d
}

// Option returns the raw option chosen on axis a.
func (d Decisions) Option(a Axis) string {
	switch a {
	case AxisOSStrategy:
		return string(d.OSStrategy)
	case AxisHardwarePolicy:
		return string(d.HardwarePolicy)
	case AxisCloudStrategy:
		return string(d.CloudStrategy)
	case AxisTraining:
		return string(d.Training)
	}
	return ""
}

// Validate rejects empty or unknown values on any axis.
func (d Decisions) Validate() error {
	for _, a := range Axes() {
		if err := check(a, d.Option(a)); err != nil {
			return err
		}
	}
	return nil
}

// Map returns the record keyed by axis name.
func (d Decisions) Map() map[string]string {
	out := make(map[string]string, 4)
	for _, a := range Axes() {
		out[string(a)] = d.Option(a)
	}
	return out
}
