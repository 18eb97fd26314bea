package services

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/parkrow/parkrow-api/internal/models"
)

// Signature artifact kinds
const (
	SignatureKindTyped = "typed"
	SignatureKindImage = "image"
)

// maxSignatureWidth is the pixel width above which drawn signatures are
// downscaled before embedding. Captured canvases can be several thousand
// pixels wide and would bloat the stored document.
const maxSignatureWidth = 600

// SignatureArtifact is a normalized signature ready for document composition:
// either a typed legal name or a decoded raster image.
type SignatureArtifact struct {
	Kind     string
	Text     string
	Image    []byte
	MimeType string
}

// IsImage reports whether the artifact carries raster image data
func (a *SignatureArtifact) IsImage() bool {
	return a.Kind == SignatureKindImage && len(a.Image) > 0
}

// BuildSignatureArtifact normalizes raw signing input into an artifact.
// method selects the capture style; legalName is the name typed or attributed
// to the signer; imageData is the drawn signature as a base64 data URL and is
// only consulted for the draw method. A draw request without usable image
// data falls back to the typed rendering of the legal name.
func BuildSignatureArtifact(method, legalName, imageData string) (*SignatureArtifact, error) {
	if method != models.SignatureMethodType && method != models.SignatureMethodDraw {
		return nil, ErrUnknownMethod
	}
	legalName = strings.TrimSpace(legalName)

	if method == models.SignatureMethodDraw && strings.TrimSpace(imageData) != "" {
		img, mime, err := decodeSignatureImage(imageData)
		if err != nil {
			return nil, err
		}
		return &SignatureArtifact{
			Kind:     SignatureKindImage,
			Text:     legalName,
			Image:    img,
			MimeType: mime,
		}, nil
	}

	if legalName == "" {
		return nil, ErrSignatureRequired
	}
	return &SignatureArtifact{Kind: SignatureKindTyped, Text: legalName}, nil
}

// decodeSignatureImage parses a "data:image/png;base64,..." URL, verifies the
// declared type is PNG or JPEG, and downscales oversized captures.
func decodeSignatureImage(dataURL string) ([]byte, string, error) {
	meta, payload, found := strings.Cut(dataURL, ",")
	if !found || !strings.HasPrefix(meta, "data:") {
		return nil, "", ErrUnsupportedImage
	}

	mime := strings.TrimPrefix(meta, "data:")
	mime = strings.TrimSuffix(mime, ";base64")
	if mime != "image/png" && mime != "image/jpeg" {
		return nil, "", ErrUnsupportedImage
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrUnsupportedImage
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", ErrUnsupportedImage
	}

	if img.Bounds().Dx() <= maxSignatureWidth {
		return raw, mime, nil
	}

	resized := imaging.Resize(img, maxSignatureWidth, 0, imaging.Lanczos)
	format := imaging.PNG
	if mime == "image/jpeg" {
		format = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return nil, "", ErrUnsupportedImage
	}
	return buf.Bytes(), mime, nil
}
