package input

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"onelane/types"
)

func TestMailboxLatestWins(t *testing.T) {
	var box Mailbox
	_, ok := box.TakeLatest()
	assert.False(t, ok)

	box.Publish(&types.Frame{Seq: 1})
	box.Publish(&types.Frame{Seq: 2})

	f, ok := box.TakeLatest()
	require.True(t, ok)
	assert.Equal(t, uint64(2), f.Seq)

	// taking does not consume
	f, ok = box.TakeLatest()
	require.True(t, ok)
	assert.Equal(t, uint64(2), f.Seq)
}

func TestMailboxConcurrentPublish(t *testing.T) {
	var box Mailbox
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				box.Publish(&types.Frame{Seq: seq})
				box.TakeLatest()
			}
		}(uint64(i))
	}
	wg.Wait()

	f, ok := box.TakeLatest()
	require.True(t, ok)
	assert.GreaterOrEqual(t, f.Seq, uint64(1))
	assert.LessOrEqual(t, f.Seq, uint64(8))
}

// fakeCapture serves a fixed list of frame sizes, then runs dry.
type fakeCapture struct {
	sizes [][2]int
	next  int
}

func (c *fakeCapture) Read(m *gocv.Mat) bool {
	if c.next >= len(c.sizes) {
		return false
	}
	s := c.sizes[c.next]
	c.next++
	img := gocv.NewMatWithSize(s[1], s[0], gocv.MatTypeCV8UC3)
	defer img.Close()
	img.CopyTo(m)
	return true
}

func (c *fakeCapture) Close() error { return nil }

func TestDeliverDropsWrongSize(t *testing.T) {
	cam := types.CameraConfig{Width: 64, Height: 48, CropTop: 24}
	c := &fakeCapture{sizes: [][2]int{{64, 48}, {32, 24}}}

	var box Mailbox
	require.NoError(t, Deliver(context.Background(), c, &box, cam, nil))

	f, ok := box.TakeLatest()
	require.True(t, ok)
	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, 64, f.Width)
	assert.Len(t, f.Pix, 64*48*3)
}

func TestDeliverStopsOnCancel(t *testing.T) {
	cam := types.CameraConfig{Width: 8, Height: 8}
	c := &fakeCapture{sizes: [][2]int{{8, 8}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var box Mailbox
	assert.ErrorIs(t, Deliver(ctx, c, &box, cam, nil), context.Canceled)
	_, ok := box.TakeLatest()
	assert.False(t, ok)
}

func TestFrameRoundTrip(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 2, 3, gocv.MatTypeCV8UC3)
	defer img.Close()

	f, err := FrameFromMat(img, 7, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30}, f.Pix[:3])

	back, err := MatFromFrame(f)
	require.NoError(t, err)
	defer back.Close()
	assert.Equal(t, 2, back.Rows())
	assert.Equal(t, 3, back.Cols())

	gray := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV8U)
	defer gray.Close()
	_, err = FrameFromMat(gray, 8, time.Unix(0, 0))
	assert.ErrorIs(t, err, types.ErrMalformedFrame)
}

func TestHandleKey(t *testing.T) {
	state := &types.DriveState{}
	debug := types.NewDebugLog(4)
	c := Controls{State: state, Debug: debug}
	frame := gocv.NewMat()
	defer frame.Close()

	assert.False(t, HandleKey(' ', c, frame))
	assert.True(t, state.Hold)
	assert.False(t, HandleKey(' ', c, frame))
	assert.False(t, state.Hold)

	before := debug.Enabled()
	assert.False(t, HandleKey('d', c, frame))
	assert.NotEqual(t, before, debug.Enabled())

	assert.False(t, HandleKey('v', c, frame))
	assert.True(t, HandleKey('q', c, frame))
	assert.True(t, HandleKey(keyEscape, c, frame))
}
