package recording

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onelane/types"
)

type savedSnapshot struct {
	index    int
	category string
	seq      uint64
}

type fakeWriter struct {
	saved []savedSnapshot
	err   error
}

func (w *fakeWriter) WriteSnapshot(index int, category string, f *types.Frame) error {
	w.saved = append(w.saved, savedSnapshot{index: index, category: category, seq: f.Seq})
	return w.err
}

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time { return c.t }

func testFrame(seq uint64) *types.Frame {
	return &types.Frame{Seq: seq, Width: 4, Height: 2, Pix: make([]byte, 4*2*3)}
}

func TestSnapshotterRateLimit(t *testing.T) {
	w := &fakeWriter{}
	clock := &stepClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewSnapshotter(w, 500*time.Millisecond, nil)
	s.Now = clock.now

	var state types.DriveState
	assert.True(t, s.Save(&state, testFrame(1), CategoryNoCenterline))

	clock.t = clock.t.Add(200 * time.Millisecond)
	assert.False(t, s.Save(&state, testFrame(2), CategoryNoCenterline))

	clock.t = clock.t.Add(300 * time.Millisecond)
	assert.True(t, s.Save(&state, testFrame(3), CategoryAmbiguous))

	require.Len(t, w.saved, 2)
	assert.Equal(t, savedSnapshot{index: 0, category: CategoryNoCenterline, seq: 1}, w.saved[0])
	assert.Equal(t, savedSnapshot{index: 1, category: CategoryAmbiguous, seq: 3}, w.saved[1])
	assert.Equal(t, 2, state.DebugImageIndex)
	assert.Equal(t, clock.t, state.LastSnapshot)
}

func TestSnapshotterWriteFailureStillAdvances(t *testing.T) {
	w := &fakeWriter{err: errors.New("disk full")}
	s := NewSnapshotter(w, time.Second, nil)

	var state types.DriveState
	assert.True(t, s.Save(&state, testFrame(1), CategoryNoLookahead))
	assert.Equal(t, 1, state.DebugImageIndex)
}

func TestSnapshotterDisabled(t *testing.T) {
	var state types.DriveState
	var s *Snapshotter
	assert.False(t, s.Save(&state, testFrame(1), CategoryAmbiguous))

	s = NewSnapshotter(nil, time.Second, nil)
	assert.False(t, s.Save(&state, testFrame(1), CategoryAmbiguous))
	assert.Zero(t, state.DebugImageIndex)
}

func TestPNGWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "img")
	w := PNGWriter{Dir: dir}

	require.NoError(t, w.WriteSnapshot(3, CategoryAmbiguous, testFrame(1)))
	_, err := os.Stat(filepath.Join(dir, "debug3.png"))
	assert.NoError(t, err)

	err = w.WriteSnapshot(4, CategoryAmbiguous, &types.Frame{Width: 4, Height: 2})
	assert.ErrorIs(t, err, types.ErrMalformedFrame)
}
