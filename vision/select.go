package vision

import "onelane/types"

// Selection is the region chosen as the lane marking.
type Selection struct {
	Region types.Region
	// Qualifying counts the regions that passed the filter.
	Qualifying int
}

// Ambiguous reports whether more than one region qualified.
func (s Selection) Ambiguous() bool {
	return s.Qualifying > 1
}

// Qualifies applies the area, bottom-reach and height limits.
func Qualifies(r types.Region, cfg types.SelectConfig) bool {
	return r.Area > cfg.MinArea && r.Bottom() > cfg.MinBottom && r.Height > cfg.MinHeight
}

// SelectLane picks the lane marking. With one qualifying region that region wins. With
// several, the largest region of the whole frame wins, even one that failed the filter.
func SelectLane(regions []types.Region, cfg types.SelectConfig) (Selection, error) {
	var good []types.Region
	for _, r := range regions {
		if Qualifies(r, cfg) {
			good = append(good, r)
		}
	}

	switch len(good) {
	case 0:
		return Selection{}, types.ErrNoLane
	case 1:
		return Selection{Region: good[0], Qualifying: 1}, nil
	}

	largest := regions[0]
	for _, r := range regions[1:] {
		if r.Area > largest.Area {
			largest = r
		}
	}
	return Selection{Region: largest, Qualifying: len(good)}, nil
}
