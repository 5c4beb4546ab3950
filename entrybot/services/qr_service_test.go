package services

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRServiceURLs(t *testing.T) {
	qr := NewQRService("https://entry.example.com/")

	assert.Equal(t, "https://entry.example.com/?loc=07", qr.CheckinURL("07"))
	assert.Equal(t, "https://entry.example.com/qr/07.png", qr.ImageURL("07"))
	assert.Equal(t, "https://entry.example.com/?loc=a%26b", qr.CheckinURL("a&b"))
}

func TestQRServicePNG(t *testing.T) {
	data, err := NewQRService("https://entry.example.com").PNG("42")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())
	assert.Zero(t, img.Bounds().Dx()%10)
}
