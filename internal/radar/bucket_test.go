package radar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCeilBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "already aligned",
			in:   time.Date(2024, 5, 4, 10, 5, 0, 0, time.UTC),
			want: time.Date(2024, 5, 4, 10, 5, 0, 0, time.UTC),
		},
		{
			name: "mid bucket",
			in:   time.Date(2024, 5, 4, 10, 3, 17, 0, time.UTC),
			want: time.Date(2024, 5, 4, 10, 5, 0, 0, time.UTC),
		},
		{
			name: "one second past boundary",
			in:   time.Date(2024, 5, 4, 10, 5, 1, 0, time.UTC),
			want: time.Date(2024, 5, 4, 10, 10, 0, 0, time.UTC),
		},
		{
			name: "sub-second component",
			in:   time.Date(2024, 5, 4, 10, 9, 59, 999_000_000, time.UTC),
			want: time.Date(2024, 5, 4, 10, 10, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := CeilBucket(tc.in, BucketSize)
			assert.Equal(t, tc.want, got)

			// Bounds and epoch alignment hold for every input.
			assert.False(t, got.Before(tc.in))
			assert.True(t, got.Before(tc.in.Add(BucketSize)))
			assert.Zero(t, got.Unix()%int64(BucketSize/time.Second))

			// Applying the ceiling twice changes nothing.
			assert.Equal(t, got, CeilBucket(got, BucketSize))
		})
	}
}

func TestBucketTimes(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 4, 10, 3, 17, 0, time.UTC)
	end := time.Date(2024, 5, 4, 10, 5, 0, 0, time.UTC)

	times := BucketTimes(now)

	assert.Len(t, times, 10)
	assert.Equal(t, end.Add(-LookbackWindow), times[0])
	assert.Equal(t, end.Add(-BucketSize), times[len(times)-1])

	for i := 1; i < len(times); i++ {
		assert.Equal(t, BucketSize, times[i].Sub(times[i-1]))
	}
	for _, ts := range times {
		assert.True(t, ts.Before(end))
	}
}

func TestFrameURL(t *testing.T) {
	t.Parallel()

	// 02:00 UTC is 10:00 in Singapore; tile names use Singapore local time.
	ts := time.Date(2024, 5, 4, 2, 0, 0, 0, time.UTC)

	want := rainMapURLPrefix + "202405041000" + rainMapURLSuffix
	assert.Equal(t, want, FrameURL(ts))
}
