package radar

import "time"

const (
	// BucketSize is the cadence at which NEA publishes rain-area tiles.
	BucketSize = 5 * time.Minute

	// LookbackWindow is how far back a single animation reaches.
	LookbackWindow = 50 * time.Minute

	rainMapURLPrefix = "https://www.nea.gov.sg/docs/default-source/rain-area/dpsri_70km_"
	rainMapURLSuffix = "0000dBR.dpsri.png"

	frameTimeLayout = "200601021504"
)

// sgTime is the timezone the upstream API keys its tile names by.
var sgTime = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		return time.FixedZone("+08", 8*60*60)
	}
	return loc
}()

// CeilBucket returns the smallest size-aligned timestamp that is not before t.
// Alignment is against the absolute epoch, not against t itself, so the
// result only depends on which bucket t falls into.
func CeilBucket(t time.Time, size time.Duration) time.Time {
	rounded := t.Truncate(size)
	if rounded.Before(t) {
		rounded = rounded.Add(size)
	}
	return rounded
}

// BucketTimes returns the bucket timestamps covered by one animation:
// ascending, BucketSize apart, all strictly before the ceiling of now.
func BucketTimes(now time.Time) []time.Time {
	end := CeilBucket(now, BucketSize)
	times := make([]time.Time, 0, LookbackWindow/BucketSize)
	for ts := end.Add(-LookbackWindow); ts.Before(end); ts = ts.Add(BucketSize) {
		times = append(times, ts)
	}
	return times
}

// FrameURL builds the tile URL for a bucket timestamp. Tile names are minted
// in Singapore local time regardless of the caller's zone.
func FrameURL(ts time.Time) string {
	return rainMapURLPrefix + ts.In(sgTime).Format(frameTimeLayout) + rainMapURLSuffix
}
