package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func composeTestInput(t *testing.T, signers []ComposeSigner) ComposeInput {
	t.Helper()
	app := testApplication()
	text := RenderLeaseText(app, "Parkrow Property Management LLC", app.LeaseGeneratedOn, TermsFromApplication(app))
	return ComposeInput{
		LeaseText:   text,
		Signers:     signers,
		SignedAt:    time.Date(2026, 1, 20, 15, 30, 0, 0, time.UTC),
		IPAddress:   "203.0.113.9",
		UserAgent:   "Mozilla/5.0 (test)",
		ContentHash: LeaseContentHash(text),
	}
}

func TestComposeSignedLeaseTyped(t *testing.T) {
	artifact := &SignatureArtifact{Kind: SignatureKindTyped, Text: "Jane Doe"}
	input := composeTestInput(t, []ComposeSigner{{Name: "Jane Doe", Artifact: artifact}})

	pdf, err := ComposeSignedLease(input)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestComposeSignedLeaseTwoSigners(t *testing.T) {
	signers := []ComposeSigner{
		{Name: "Jane Doe", Artifact: &SignatureArtifact{Kind: SignatureKindTyped, Text: "Jane Doe"}},
		{Name: "John Smith", Artifact: &SignatureArtifact{Kind: SignatureKindTyped, Text: "John Smith"}},
	}
	single := composeTestInput(t, signers[:1])
	double := composeTestInput(t, signers)

	onePdf, err := ComposeSignedLease(single)
	require.NoError(t, err)
	twoPdf, err := ComposeSignedLease(double)
	require.NoError(t, err)

	// The second signature row makes the document strictly larger
	assert.Greater(t, len(twoPdf), len(onePdf))
}

func TestComposeSignedLeaseOverlongUserAgent(t *testing.T) {
	signers := []ComposeSigner{{Name: "Jane Doe", Artifact: &SignatureArtifact{Kind: SignatureKindTyped, Text: "Jane Doe"}}}

	normal := composeTestInput(t, signers)
	long := composeTestInput(t, signers)
	long.UserAgent = strings.Repeat("Mozilla/5.0 (compatible; verbose-agent) ", 120)

	normalPdf, err := ComposeSignedLease(normal)
	require.NoError(t, err)

	// The certificate page breaks onto continuation pages instead of drawing
	// past the bottom margin
	longPdf, err := ComposeSignedLease(long)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(longPdf[:4]))
	assert.Greater(t, len(longPdf), len(normalPdf))
}

func TestComposeSignedLeaseDrawnImage(t *testing.T) {
	artifact, err := BuildSignatureArtifact("draw", "Jane Doe", pngDataURL(t, 300, 80))
	require.NoError(t, err)

	input := composeTestInput(t, []ComposeSigner{{Name: "Jane Doe", Artifact: artifact}})
	pdf, err := ComposeSignedLease(input)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
