package qrcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	g := NewGenerator()
	assert.Equal(t, 256, g.size)
	assert.Equal(t, Medium, g.recoveryLevel)

	g = NewGenerator(WithSize(128), WithRecoveryLevel(High))
	assert.Equal(t, 128, g.size)
	assert.Equal(t, High, g.recoveryLevel)
}

func TestGenerator_GeneratePNG(t *testing.T) {
	g := NewGenerator(WithSize(200))

	data, err := g.GeneratePNG("glamping")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestGenerator_GeneratePNG_Empty(t *testing.T) {
	_, err := NewGenerator().GeneratePNG("")
	assert.Error(t, err)
}

func TestCheckInContent_RoundTrip(t *testing.T) {
	tests := []string{"GL20260601ABC123", "GL 2026/06"}
	for _, no := range tests {
		t.Run(no, func(t *testing.T) {
			got, err := ParseCheckInContent(CheckInContent(no))
			require.NoError(t, err)
			assert.Equal(t, no, got)
		})
	}
}

func TestParseCheckInContent_Invalid(t *testing.T) {
	tests := []string{
		"https://example.com/?booking_no=GL1",
		"glamping://checkin?other=1",
		"",
	}
	for _, content := range tests {
		_, err := ParseCheckInContent(content)
		assert.Error(t, err, content)
	}
}

func TestGenerator_CheckInPNG(t *testing.T) {
	data, err := NewGenerator(WithRecoveryLevel(Highest)).CheckInPNG("GL20260601ABC123")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
