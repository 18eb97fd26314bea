package services

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngDataURL builds a base64 data URL for a solid PNG of the given width
func pngDataURL(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestBuildSignatureArtifactTyped(t *testing.T) {
	artifact, err := BuildSignatureArtifact(models.SignatureMethodType, "Jane Doe", "")
	require.NoError(t, err)
	assert.Equal(t, SignatureKindTyped, artifact.Kind)
	assert.Equal(t, "Jane Doe", artifact.Text)
	assert.False(t, artifact.IsImage())
}

func TestBuildSignatureArtifactTypedRequiresName(t *testing.T) {
	_, err := BuildSignatureArtifact(models.SignatureMethodType, "   ", "")
	assert.ErrorIs(t, err, ErrSignatureRequired)
}

func TestBuildSignatureArtifactDrawnPNG(t *testing.T) {
	artifact, err := BuildSignatureArtifact(models.SignatureMethodDraw, "Jane Doe", pngDataURL(t, 300, 80))
	require.NoError(t, err)
	assert.Equal(t, SignatureKindImage, artifact.Kind)
	assert.Equal(t, "image/png", artifact.MimeType)
	assert.True(t, artifact.IsImage())
	assert.Equal(t, "Jane Doe", artifact.Text)
}

func TestBuildSignatureArtifactDrawFallsBackToTyped(t *testing.T) {
	// A draw request without image data still produces a usable signature
	artifact, err := BuildSignatureArtifact(models.SignatureMethodDraw, "Jane Doe", "")
	require.NoError(t, err)
	assert.Equal(t, SignatureKindTyped, artifact.Kind)
}

func TestBuildSignatureArtifactRejectsUnknownMethod(t *testing.T) {
	_, err := BuildSignatureArtifact("stamp", "Jane Doe", "")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestBuildSignatureArtifactRejectsUnsupportedType(t *testing.T) {
	_, err := BuildSignatureArtifact(models.SignatureMethodDraw, "Jane Doe", "data:image/gif;base64,R0lGODlh")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestBuildSignatureArtifactRejectsBadPayload(t *testing.T) {
	_, err := BuildSignatureArtifact(models.SignatureMethodDraw, "Jane Doe", "data:image/png;base64,!!!not-base64!!!")
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = BuildSignatureArtifact(models.SignatureMethodDraw, "Jane Doe", "data:image/png;base64,aGVsbG8=")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestBuildSignatureArtifactDownscalesWideImages(t *testing.T) {
	artifact, err := BuildSignatureArtifact(models.SignatureMethodDraw, "Jane Doe", pngDataURL(t, 1800, 400))
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(artifact.Image))
	require.NoError(t, err)
	assert.Equal(t, maxSignatureWidth, img.Bounds().Dx())
}
