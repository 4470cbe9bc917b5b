package valuation

import "strings"

// PickSegment is the portion of a draft round a future pick lands in.
type PickSegment string

const (
	SegmentEarly PickSegment = "Early"
	SegmentMid   PickSegment = "Mid"
	SegmentLate  PickSegment = "Late"
)

// pickValues prices future rookie draft capital on the player value
// scale. Nearer years and earlier rounds carry more value; beyond the
// visible horizon everything collapses to a flat per-round price.
var pickValues = map[string]int{
	"2026 1st Early": 3500,
	"2026 1st Mid":   3000,
	"2026 1st Late":  2500,
	"2026 2nd Early": 1800,
	"2026 2nd Mid":   1500,
	"2026 2nd Late":  1200,
	"2026 3rd Early": 800,
	"2026 3rd Mid":   650,
	"2026 3rd Late":  500,
	"2026 4th":       250,
	"2027 1st Early": 3000,
	"2027 1st Mid":   2600,
	"2027 1st Late":  2200,
	"2027 2nd Early": 1500,
	"2027 2nd Mid":   1250,
	"2027 2nd Late":  1000,
	"2027 3rd Early": 650,
	"2027 3rd Mid":   550,
	"2027 3rd Late":  450,
	"2027 4th":       200,
	"2028 1st":       2200,
	"2028 2nd":       1000,
	"2028 3rd":       450,
	"2028 4th":       100,
}

// PickValue prices a dynasty draft pick by its description, e.g.
// "2026 1st Early" or "2027 4th". Unpriced descriptions fall back to
// the round-level entry without the segment, then to zero.
func PickValue(description string) int {
	description = strings.TrimSpace(description)
	if v, ok := pickValues[description]; ok {
		return v
	}

	fields := strings.Fields(description)
	if len(fields) >= 2 {
		if v, ok := pickValues[fields[0]+" "+fields[1]]; ok {
			return v
		}
	}

	return 0
}
