package decision

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAxes_FixedOrder(t *testing.T) {
	assert.Equal(t, []Axis{AxisOSStrategy, AxisHardwarePolicy, AxisCloudStrategy, AxisTraining}, Axes())
}

func TestParse_RejectsUnknown(t *testing.T) {
	_, err := ParseOSStrategy("windowsForever")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOption))

	_, err = ParseTraining("")
	assert.ErrorIs(t, err, ErrUnknownOption)

	v, err := ParseCloudStrategy("sovereign")
	require.NoError(t, err)
	assert.Equal(t, CloudSovereign, v)
}

func TestDecisions_JSONRejectsUnknownAtDecode(t *testing.T) {
	var d Decisions
	err := json.Unmarshal([]byte(`{"osStrategy":"massMigration","hardwarePolicy":"rent","cloudStrategy":"sovereign","training":"none"}`), &d)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownOption)

	require.NoError(t, json.Unmarshal([]byte(`{"osStrategy":"massMigration","hardwarePolicy":"refurbish","cloudStrategy":"sovereign","training":"studentClub"}`), &d))
	assert.Equal(t, Decisions{
		OSStrategy:     OSMassMigration,
		HardwarePolicy: HardwareRefurbish,
		CloudStrategy:  CloudSovereign,
		Training:       TrainingClub,
	}, d)
	assert.NoError(t, d.Validate())
}

func TestDecisions_YAMLRejectsUnknownAtDecode(t *testing.T) {
	var d Decisions
	err := yaml.Unmarshal([]byte("os_strategy: dualBoot\n"), &d)
	assert.Error(t, err)
}

func TestDecisions_ValidateCatchesZeroValue(t *testing.T) {
	d := StatusQuo()
	d.Training = ""
	assert.ErrorIs(t, d.Validate(), ErrUnknownOption)
	assert.NoError(t, StatusQuo().Validate())
}

func TestParseMap(t *testing.T) {
	d, err := Parse(map[string]string{
		"osStrategy":     "partialMigration",
		"hardwarePolicy": "buyNew",
		"cloudStrategy":  "proprietary",
		"training":       "teacherTraining",
	})
	require.NoError(t, err)
	assert.Equal(t, OSPartialMigration, d.OSStrategy)
	assert.Equal(t, d.Map()["training"], "teacherTraining")

	_, err = Parse(map[string]string{"osStrategy": "statusQuo"})
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestOptions(t *testing.T) {
	assert.Equal(t, []string{"buyNew", "refurbish"}, Options(AxisHardwarePolicy))
	assert.Nil(t, Options("colour"))
	assert.True(t, Known(AxisTraining, "studentClub"))
	assert.False(t, Known(AxisTraining, "buyNew"))

	opts := Options(AxisTraining)
	opts[0] = "mutated"
	assert.Equal(t, "none", Options(AxisTraining)[0])
}
