package sink

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"onelane/types"
)

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

type failingSink struct {
	published int
	err       error
}

func (f *failingSink) Publish(types.Decision) error {
	f.published++
	return f.err
}

func (f *failingSink) Close() error { return f.err }

func TestSerialSinkLineFormat(t *testing.T) {
	port := &bufferPort{}
	s := NewSerialSink(port, 0.0479, 0.2734)

	require.NoError(t, s.Publish(types.Decision{Command: types.SteeringCommand{AngleDeg: 0, Throttle: 1}}))
	require.NoError(t, s.Publish(types.Decision{Command: types.SteeringCommand{AngleDeg: 30, Throttle: 0.3}}))
	require.NoError(t, s.Publish(types.Decision{Command: types.SteeringCommand{AngleDeg: -30, Throttle: 0.3}}))

	assert.Equal(t, "0.2734,1.0000\n1.0000,0.3000\n-1.0000,0.3000\n", port.String())

	require.NoError(t, s.Close())
	assert.True(t, port.closed)
}

func TestSerialSinkSteer(t *testing.T) {
	s := NewSerialSink(&bufferPort{}, 0.0479, 0.2734)
	assert.InDelta(t, 0.0479*10+0.2734, s.Steer(10), 1e-12)
	assert.Equal(t, 1.0, s.Steer(90))
	assert.Equal(t, -1.0, s.Steer(-90))
}

func TestPortOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := PortOptions{}.Normalize()
		require.NoError(t, err)
		assert.Equal(t, PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N"}, opts)
	})

	t.Run("serial mode", func(t *testing.T) {
		mode, err := PortOptions{BaudRate: 9600, StopBits: 2, Parity: "even"}.SerialMode()
		require.NoError(t, err)
		assert.Equal(t, 9600, mode.BaudRate)
		assert.Equal(t, serial.TwoStopBits, mode.StopBits)
		assert.Equal(t, serial.EvenParity, mode.Parity)

		mode, err = PortOptionsFrom(types.DefaultSerialConfig()).SerialMode()
		require.NoError(t, err)
		assert.Equal(t, serial.OneStopBit, mode.StopBits)
		assert.Equal(t, serial.NoParity, mode.Parity)
	})

	for name, opts := range map[string]PortOptions{
		"data bits": {DataBits: 9},
		"stop bits": {StopBits: 3},
		"parity":    {Parity: "mark"},
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := opts.SerialMode()
			assert.Error(t, err)
		})
	}
}

func TestMultiReachesEverySink(t *testing.T) {
	bad := &failingSink{err: errors.New("boom")}
	good := &failingSink{}
	m := Multi{bad, good, LogSink{}}

	err := m.Publish(types.Decision{FrameSeq: 1})
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 1, bad.published)
	assert.Equal(t, 1, good.published)
	assert.Error(t, m.Close())
}

func TestDecisionLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.db")
	dl, err := NewDecisionLog(path, "unit test")
	require.NoError(t, err)
	defer dl.Close()
	assert.NotEmpty(t, dl.RunID)

	ok := types.Decision{
		FrameSeq:    7,
		Command:     types.SteeringCommand{AngleDeg: 2.5, Throttle: 1},
		Outcome:     types.OutcomeOK,
		RegionCount: 3,
		Vehicle:     &types.VehicleCurve{Quadratic: types.Quadratic{A: 0.01, B: 0.1, C: 1}},
	}
	lost := types.Decision{FrameSeq: 8, Outcome: types.OutcomeNoCenterline}
	lost.Note("can't find centerline")

	require.NoError(t, dl.Publish(ok))
	require.NoError(t, dl.Publish(lost))

	var count int
	require.NoError(t, dl.QueryRow(`SELECT COUNT(*) FROM decisions WHERE run_id = ?`, dl.RunID).Scan(&count))
	assert.Equal(t, 2, count)

	var (
		outcome string
		angle   float64
		curveC  *float64
		notes   string
	)
	row := dl.QueryRow(`SELECT outcome, angle_deg, curve_c, notes FROM decisions WHERE frame_seq = 7`)
	require.NoError(t, row.Scan(&outcome, &angle, &curveC, &notes))
	assert.Equal(t, "OK", outcome)
	assert.Equal(t, 2.5, angle)
	require.NotNil(t, curveC)
	assert.Equal(t, 1.0, *curveC)
	assert.Empty(t, notes)

	row = dl.QueryRow(`SELECT outcome, curve_c, notes FROM decisions WHERE frame_seq = 8`)
	require.NoError(t, row.Scan(&outcome, &curveC, &notes))
	assert.Equal(t, "NO_CENTERLINE", outcome)
	assert.Nil(t, curveC)
	assert.Equal(t, "can't find centerline", notes)

	// a second run against the same file gets its own id
	again, err := NewDecisionLog(path, "")
	require.NoError(t, err)
	defer again.Close()
	assert.NotEqual(t, dl.RunID, again.RunID)
}
