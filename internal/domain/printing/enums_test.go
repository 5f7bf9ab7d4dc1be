package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorMode_IsValid(t *testing.T) {
	assert.True(t, ColorModeColor.IsValid())
	assert.True(t, ColorModeMonochrome.IsValid())
	assert.False(t, ColorMode("grayscale").IsValid())
	assert.False(t, ColorMode("").IsValid())
}

func TestOrientation_IsValid(t *testing.T) {
	assert.True(t, OrientationPortrait.IsValid())
	assert.True(t, OrientationLandscape.IsValid())
	assert.False(t, Orientation("PORTRAIT").IsValid())
}

func TestQuality_Effective(t *testing.T) {
	tests := []struct {
		input    Quality
		expected Quality
	}{
		{"", QualityNormal},
		{QualityDraft, QualityDraft},
		{QualityNormal, QualityNormal},
		{QualityHigh, QualityHigh},
		{"photo", QualityNormal},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.Effective())
		})
	}
}

func TestPaperSize_IsValid(t *testing.T) {
	for _, p := range AllPaperSizes() {
		assert.True(t, p.IsValid(), p)
	}
	assert.True(t, PaperSize("na_letter_8.5x11in").IsValid())
	assert.False(t, PaperSize("").IsValid())
	assert.False(t, PaperSize("A4 -o x").IsValid())
	assert.False(t, PaperSize("A4;rm").IsValid())
}

func TestNormalizeDeviceState(t *testing.T) {
	tests := []struct {
		raw      string
		expected DeviceState
	}{
		{"idle", DeviceStateIdle},
		{"idle.", DeviceStateIdle},
		{"Idle", DeviceStateIdle},
		{"printing", DeviceStatePrinting},
		{"disabled", DeviceStateOffline},
		{"stopped", DeviceStateOffline},
		{"now", DeviceStateUnknown},
		{"", DeviceStateUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDeviceState(tt.raw))
		})
	}
}

func TestDeviceState_IsOnline(t *testing.T) {
	assert.True(t, DeviceStateIdle.IsOnline())
	assert.True(t, DeviceStatePrinting.IsOnline())
	assert.False(t, DeviceStateOffline.IsOnline())
	assert.False(t, DeviceStateUnknown.IsOnline())
}
