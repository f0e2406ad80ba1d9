package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnap(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 0},
		{480, 480},
		{487, 480},
		{488, 495},
		{494, 495},
		{1259, 1260},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Snap(tc.in), "Snap(%d)", tc.in)
	}
}

func TestOverlaps(t *testing.T) {
	// Half-open: a slot ending at 600 does not overlap one starting at 600.
	assert.False(t, Overlaps(540, 600, 600, 660))
	assert.False(t, Overlaps(600, 660, 540, 600))
	assert.True(t, Overlaps(540, 615, 600, 660))
	assert.True(t, Overlaps(600, 660, 540, 615))
	assert.True(t, Overlaps(540, 660, 570, 600))
	assert.False(t, Overlaps(480, 540, 555, 615))
}

func TestValidatePlacement(t *testing.T) {
	require.NoError(t, ValidatePlacement(1, 480, 540))
	require.NoError(t, ValidatePlacement(0, 1245, 1260))

	assert.Error(t, ValidatePlacement(7, 480, 540), "day out of range")
	assert.Error(t, ValidatePlacement(-1, 480, 540), "day out of range")
	assert.Error(t, ValidatePlacement(1, 482, 540), "off-grid start")
	assert.Error(t, ValidatePlacement(1, 480, 541), "off-grid end")
	assert.Error(t, ValidatePlacement(1, 480, 480), "zero duration")
	assert.Error(t, ValidatePlacement(1, 540, 480), "inverted range")
	assert.Error(t, ValidatePlacement(1, 465, 540), "before window")
	assert.Error(t, ValidatePlacement(1, 1200, 1275), "after window")
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "08:00", FormatMinutes(480))
	assert.Equal(t, "21:00", FormatMinutes(1260))
	assert.Equal(t, "09:15", FormatMinutes(555))
}
