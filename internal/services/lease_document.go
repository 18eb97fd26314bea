package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// splice states while walking the lease text. The composer copies body lines
// until it reaches the tenant signature anchor, replaces the placeholder
// block with captured signatures, skips the remaining placeholder lines, and
// resumes verbatim at the landlord anchor.
type spliceState int

const (
	spliceBeforeAnchor spliceState = iota
	spliceInjecting
	spliceSuppressing
	spliceResumed
)

// signature row rendering constants, in points
const (
	signatureImageWidth = 140.0
	signatureRuleWidth  = 200.0
	signatureRowHeight  = 64.0
)

// ComposeSigner is one executed signature to splice into the document
type ComposeSigner struct {
	Name     string
	Artifact *SignatureArtifact
}

// ComposeInput carries everything the composer needs to produce the signed
// lease document: the rendered lease text, the executed signatures, and the
// signing metadata for the audit page.
type ComposeInput struct {
	LeaseText   string
	Signers     []ComposeSigner
	SignedAt    time.Time
	IPAddress   string
	UserAgent   string
	ContentHash string
}

// ComposeSignedLease renders the lease text onto US Letter pages, splices the
// executed signature block in place of the tenant placeholder lines, and
// appends an audit page. The returned bytes are a complete PDF document.
func ComposeSignedLease(input ComposeInput) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 10)

	metrics := LeasePageMetrics()
	cur := metrics.Start()
	state := spliceBeforeAnchor

	for _, line := range WrapText(input.LeaseText, LeaseWrapColumns) {
		switch state {
		case spliceSuppressing:
			if line != LandlordSignatureAnchor {
				continue
			}
			state = spliceResumed
			cur = writeBodyLine(pdf, metrics, cur, line)
		case spliceBeforeAnchor:
			cur = writeBodyLine(pdf, metrics, cur, line)
			if line == TenantSignatureAnchor {
				state = spliceInjecting
				for _, signer := range input.Signers {
					cur = writeSignatureRow(pdf, metrics, cur, signer, input.SignedAt)
				}
				state = spliceSuppressing
			}
		default:
			cur = writeBodyLine(pdf, metrics, cur, line)
		}
	}

	writeAuditPage(pdf, metrics, input)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentEngine, err)
	}
	return buf.Bytes(), nil
}

// writeBodyLine draws one line at the cursor and advances it, adding a page
// when the cursor rolls over.
func writeBodyLine(pdf *gofpdf.Fpdf, m PageMetrics, cur Cursor, line string) Cursor {
	if line != "" {
		pdf.Text(PageMarginPt, cur.Y, line)
	}
	next, broke := m.Advance(cur)
	if broke {
		pdf.AddPage()
	}
	return next
}

// writeSignatureRow draws one executed signature: the drawn image or the
// typed name over a signature rule, followed by the printed name and date.
func writeSignatureRow(pdf *gofpdf.Fpdf, m PageMetrics, cur Cursor, signer ComposeSigner, signedAt time.Time) Cursor {
	if cur.Y+signatureRowHeight > m.BottomLimit {
		pdf.AddPage()
		cur = Cursor{Page: cur.Page + 1, Y: m.TopMargin}
	}

	baseline := cur.Y + 36
	if signer.Artifact != nil && signer.Artifact.IsImage() {
		imageType := "PNG"
		if signer.Artifact.MimeType == "image/jpeg" {
			imageType = "JPG"
		}
		name := fmt.Sprintf("sig-%s-%d", signer.Name, cur.Page)
		opts := gofpdf.ImageOptions{ImageType: imageType}
		info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(signer.Artifact.Image))
		height := signatureImageWidth * info.Height() / info.Width()
		if height > 40 {
			height = 40
		}
		pdf.ImageOptions(name, PageMarginPt, baseline-height, signatureImageWidth, height, false, opts, 0, "")
	} else {
		pdf.SetFont("Times", "I", 14)
		pdf.Text(PageMarginPt+4, baseline-4, signer.Name)
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.Line(PageMarginPt, baseline, PageMarginPt+signatureRuleWidth, baseline)

	pdf.Text(PageMarginPt, baseline+m.LineHeight, fmt.Sprintf("%s (Tenant)", signer.Name))
	pdf.Text(PageMarginPt, baseline+2*m.LineHeight, fmt.Sprintf("DATED: %s", signedAt.UTC().Format("January 2, 2006")))

	cur.Y += signatureRowHeight
	return cur
}

// writeAuditPage appends the signature certificate page recording who signed,
// when, from where, and the hash of the exact text that was signed.
func writeAuditPage(pdf *gofpdf.Fpdf, m PageMetrics, input ComposeInput) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(PageMarginPt, m.TopMargin, "ELECTRONIC SIGNATURE CERTIFICATE")
	pdf.SetFont("Helvetica", "", 10)

	cur := Cursor{Page: 1, Y: m.TopMargin + 2*m.LineHeight}
	write := func(line string) {
		for _, wrapped := range WrapText(line, LeaseWrapColumns) {
			if wrapped != "" {
				pdf.Text(PageMarginPt, cur.Y, wrapped)
			}
			next, broke := m.Advance(cur)
			if broke {
				pdf.AddPage()
			}
			cur = next
		}
	}

	for _, signer := range input.Signers {
		method := "typed signature"
		if signer.Artifact != nil && signer.Artifact.IsImage() {
			method = "drawn signature"
		}
		write(fmt.Sprintf("Signed by: %s (%s)", signer.Name, method))
	}
	write(fmt.Sprintf("Signed at: %s", input.SignedAt.UTC().Format(time.RFC3339)))
	write(fmt.Sprintf("IP address: %s", input.IPAddress))
	write(fmt.Sprintf("User agent: %s", input.UserAgent))
	write(fmt.Sprintf("Document hash: %s", input.ContentHash))
	write("")
	write("The signer consented to conduct this transaction electronically and adopted the signature above as a legally binding execution of the agreement.")
}
