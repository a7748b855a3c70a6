package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onelane/types"
)

var (
	floor = [3]byte{190, 200, 205} // B, G, R
	tape  = [3]byte{200, 60, 40}
)

// bandFrame renders a 640x480 floor with a vertical tape band over columns [left, right].
func bandFrame(left, right int) *types.Frame {
	f := &types.Frame{Width: 640, Height: 480, Pix: make([]byte, 640*480*3)}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			px := floor
			if x >= left && x <= right {
				px = tape
			}
			copy(f.Pix[(y*f.Width+x)*3:], px[:])
		}
	}
	return f
}

func TestPreprocess(t *testing.T) {
	f := bandFrame(300, 309)
	cf, err := Preprocess(f, types.DefaultCameraConfig(), types.DefaultPreprocessConfig())
	require.NoError(t, err)
	defer cf.Close()

	assert.Equal(t, 240, cf.Rows())
	assert.Equal(t, 640, cf.Cols())
	assert.InDelta(t, 2*190-200-205, cf.GetFloatAt(0, 0), 1e-3)
	assert.InDelta(t, 2*200-60-40, cf.GetFloatAt(100, 305), 1e-3)
}

func TestPreprocessRejectsMalformedFrame(t *testing.T) {
	_, err := Preprocess(&types.Frame{Width: 640, Height: 480, Pix: make([]byte, 10)}, types.DefaultCameraConfig(), types.DefaultPreprocessConfig())
	assert.ErrorIs(t, err, types.ErrMalformedFrame)

	_, err = Preprocess(nil, types.DefaultCameraConfig(), types.DefaultPreprocessConfig())
	assert.ErrorIs(t, err, types.ErrMalformedFrame)
}

func segmentFrame(t *testing.T, f *types.Frame) Segmentation {
	t.Helper()
	cf, err := Preprocess(f, types.DefaultCameraConfig(), types.DefaultPreprocessConfig())
	require.NoError(t, err)
	defer cf.Close()

	seg, err := Segment(cf, types.DefaultSegmentConfig())
	require.NoError(t, err)
	return seg
}

func TestSegmentFlatFrameHasNoRegions(t *testing.T) {
	seg := segmentFrame(t, bandFrame(-1, -1))
	assert.Empty(t, seg.Regions)
	assert.Equal(t, 640, seg.Labels.Width)
	assert.Equal(t, 240, seg.Labels.Height)
	for _, l := range seg.Labels.Labels {
		require.Zero(t, l)
	}
}

func TestSegmentFindsTapeBand(t *testing.T) {
	seg := segmentFrame(t, bandFrame(330, 345))
	require.NotEmpty(t, seg.Regions)

	var band types.Region
	for _, r := range seg.Regions {
		if r.Area > band.Area {
			band = r
		}
	}
	assert.Equal(t, 0, band.Top)
	assert.Equal(t, 240, band.Height)
	assert.Equal(t, 240, band.Bottom())
	assert.GreaterOrEqual(t, band.Area, 10*240)
	assert.InDelta(t, 337.5, band.Centroid.X, 2)
	assert.Equal(t, int32(band.ID), seg.Labels.At(337, 120))
	assert.Zero(t, seg.Labels.At(10, 120))

	sel, err := SelectLane(seg.Regions, types.DefaultSelectConfig())
	require.NoError(t, err)
	assert.Equal(t, band.ID, sel.Region.ID)
	assert.False(t, sel.Ambiguous())
}

func TestSelectLane(t *testing.T) {
	cfg := types.DefaultSelectConfig()
	lane := func(id, area, top, height int) types.Region {
		return types.Region{ID: id, Area: area, Top: top, Height: height, Width: 10}
	}

	t.Run("nothing qualifies", func(t *testing.T) {
		regions := []types.Region{
			lane(1, 900, 100, 140),  // too small
			lane(2, 5000, 0, 200),   // ends above the bottom band
			lane(3, 5000, 170, 70),  // too short
			lane(4, 1000, 100, 140), // area must exceed the limit
		}
		_, err := SelectLane(regions, cfg)
		assert.ErrorIs(t, err, types.ErrNoLane)

		_, err = SelectLane(nil, cfg)
		assert.ErrorIs(t, err, types.ErrNoLane)
	})

	t.Run("single qualifying region wins even if not the largest", func(t *testing.T) {
		regions := []types.Region{
			lane(1, 9000, 0, 60), // large but too short
			lane(2, 2000, 100, 140),
		}
		sel, err := SelectLane(regions, cfg)
		require.NoError(t, err)
		assert.Equal(t, 2, sel.Region.ID)
		assert.Equal(t, 1, sel.Qualifying)
		assert.False(t, sel.Ambiguous())
	})

	t.Run("several qualifying picks the largest overall", func(t *testing.T) {
		regions := []types.Region{
			lane(1, 2000, 100, 140),
			lane(2, 9000, 0, 60), // fails the filter but is the biggest blob
			lane(3, 3000, 60, 180),
		}
		sel, err := SelectLane(regions, cfg)
		require.NoError(t, err)
		assert.Equal(t, 2, sel.Region.ID)
		assert.Equal(t, 2, sel.Qualifying)
		assert.True(t, sel.Ambiguous())
	})

	t.Run("several qualifying picks the largest qualifying when it is also largest", func(t *testing.T) {
		regions := []types.Region{
			lane(1, 2000, 100, 140),
			lane(2, 500, 0, 10),
			lane(3, 3000, 60, 180),
		}
		sel, err := SelectLane(regions, cfg)
		require.NoError(t, err)
		assert.Equal(t, 3, sel.Region.ID)
	})
}
