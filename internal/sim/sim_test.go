package sim

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	otg "github.com/sevenphase/otg"
)

func basicMotion() Motion {
	return Motion{
		CurrentPosition:     []float64{0},
		CurrentVelocity:     []float64{0},
		CurrentAcceleration: []float64{0},
		TargetPosition:      []float64{1},
		TargetVelocity:      []float64{0},
		TargetAcceleration:  []float64{0},
		MaxVelocity:         []float64{1},
		MaxAcceleration:     []float64{1},
		MaxJerk:             []float64{2},
	}
}

func TestBuildInput(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		in, err := BuildInput(basicMotion())
		require.NoError(t, err)
		assert.Equal(t, 1, in.DOFs())
		assert.Equal(t, otg.ControlPosition, in.ControlInterface)
		assert.Equal(t, otg.SynchronizationTime, in.Synchronization)
		assert.NoError(t, in.Validate())
	})

	t.Run("discriminators", func(t *testing.T) {
		t.Parallel()
		m := basicMotion()
		m.ControlInterface = "velocity"
		m.Synchronization = "none"
		in, err := BuildInput(m)
		require.NoError(t, err)
		assert.Equal(t, otg.ControlVelocity, in.ControlInterface)
		assert.Equal(t, otg.SynchronizationNone, in.Synchronization)

		m.ControlInterface = "teleport"
		_, err = BuildInput(m)
		assert.ErrorContains(t, err, "unknown control interface")

		m = basicMotion()
		m.Synchronization = "sometimes"
		_, err = BuildInput(m)
		assert.ErrorContains(t, err, "unknown synchronization mode")
	})

	t.Run("length checks", func(t *testing.T) {
		t.Parallel()
		m := basicMotion()
		m.MaxJerk = []float64{2, 2}
		_, err := BuildInput(m)
		assert.ErrorContains(t, err, "max_jerk")

		m = basicMotion()
		m.CurrentPosition = nil
		_, err = BuildInput(m)
		assert.ErrorContains(t, err, "current_position")

		m = basicMotion()
		m.IntermediatePositions = [][]float64{{1, 2}}
		_, err = BuildInput(m)
		assert.ErrorContains(t, err, "intermediate position")
	})

	t.Run("optional fields", func(t *testing.T) {
		t.Parallel()
		m := basicMotion()
		m.MinVelocity = []float64{-0.5}
		m.MinPosition = []float64{-10}
		m.MaxPosition = []float64{10}
		m.IntermediatePositions = [][]float64{{0.5}}
		m.PerSectionMinimumDuration = []float64{0, 1}
		in, err := BuildInput(m)
		require.NoError(t, err)
		assert.NotNil(t, in.MinVelocity)
		assert.Len(t, in.IntermediatePositions, 1)
		assert.Equal(t, []float64{0, 1}, in.PerSectionMinimumDuration)
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	input := Input{
		Meta:   Meta{RunID: "basic", ControlCycle: 0.01},
		Motion: basicMotion(),
	}
	log, err := Run(input)
	require.NoError(t, err)

	assert.Equal(t, "finished", log.Result)
	assert.Greater(t, log.Duration, 0.0)
	require.NotEmpty(t, log.Output)

	last := log.Output[len(log.Output)-1]
	assert.InDelta(t, log.Duration, last.Time, 1e-9)
	assert.InDelta(t, 1.0, last.Position[0], 1e-9)
	assert.InDelta(t, 0.0, last.Velocity[0], 1e-9)

	for i := 1; i < len(log.Output); i++ {
		assert.Greater(t, log.Output[i].Time, log.Output[i-1].Time)
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing control cycle", func(t *testing.T) {
		t.Parallel()
		_, err := Run(Input{Meta: Meta{RunID: "r"}, Motion: basicMotion()})
		assert.ErrorContains(t, err, "control_cycle")
	})

	t.Run("solver error carries the result", func(t *testing.T) {
		t.Parallel()
		m := basicMotion()
		m.MaxJerk = []float64{-1}
		_, err := Run(Input{Meta: Meta{RunID: "r", ControlCycle: 0.01}, Motion: m})
		assert.ErrorContains(t, err, "invalid input")
	})
}

func TestRunJSON(t *testing.T) {
	t.Parallel()

	input := Input{
		Meta:   Meta{RunID: "roundtrip", ControlCycle: 0.01},
		Motion: basicMotion(),
	}
	raw, err := json.Marshal(input)
	require.NoError(t, err)

	out, err := RunJSON(string(raw))
	require.NoError(t, err)

	var log Log
	require.NoError(t, json.Unmarshal([]byte(out), &log))

	// The encoded log must match what Run produces directly.
	want, err := Run(input)
	require.NoError(t, err)
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		_, err := RunJSON("{not json")
		assert.ErrorContains(t, err, "invalid input JSON")
	})
}
