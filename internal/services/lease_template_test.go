package services

import (
	"strings"
	"testing"

	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Setup("test")
	m.Run()
}

func testApplication() *models.Application {
	return &models.Application{
		ID:              7,
		ApplicantUserID: 42,
		FirstName:       "Jane",
		LastName:        "Doe",
		Street:          "12 Oak St",
		City:            "Springfield",
		State:           "IL",
		Zip:             "62701",
		Status:          models.ApplicationStatusApproved,
		LeaseStartDate:  "2026-03-01",
		LeaseEndDate:    "2027-02-28",
		RentalAmount:    2500,
		LeaseGenerated:  true,
		LeaseGeneratedOn: "2026-01-15",
	}
}

func TestRenderLeaseTextDeterministic(t *testing.T) {
	app := testApplication()
	terms := TermsFromApplication(app)

	first := RenderLeaseText(app, "Parkrow Property Management LLC", app.LeaseGeneratedOn, terms)
	second := RenderLeaseText(app, "Parkrow Property Management LLC", app.LeaseGeneratedOn, terms)

	assert.Equal(t, first, second)
	assert.Equal(t, LeaseContentHash(first), LeaseContentHash(second))
	assert.True(t, strings.HasPrefix(LeaseContentHash(first), "sha256:"))
}

func TestRenderLeaseTextDates(t *testing.T) {
	app := testApplication()
	text := RenderLeaseText(app, "Parkrow Property Management LLC", app.LeaseGeneratedOn, TermsFromApplication(app))

	assert.Contains(t, text, "January 15, 2026") // generation date
	assert.Contains(t, text, "March 1, 2026")    // term start
	assert.Contains(t, text, "February 28, 2027")

	// Sixty days before the start date, used by both the move-in balance and
	// cancellation clauses
	assert.Equal(t, 2, strings.Count(text, "December 31, 2025"))
}

func TestRenderLeaseTextInvalidDate(t *testing.T) {
	app := testApplication()
	app.LeaseStartDate = "not-a-date"
	text := RenderLeaseText(app, "Parkrow Property Management LLC", app.LeaseGeneratedOn, TermsFromApplication(app))

	assert.Contains(t, text, InvalidDateText)
}

func TestRenderLeaseTextAmounts(t *testing.T) {
	app := testApplication()
	text := RenderLeaseText(app, "Parkrow Property Management LLC", app.LeaseGeneratedOn, TermsFromApplication(app))

	assert.Contains(t, text, "$2500")
	// No deposit on file falls back to the default
	assert.Contains(t, text, "$500")
}

func TestRenderLeaseTextCoApplicant(t *testing.T) {
	app := testApplication()
	coFirst, coLast := "John", "Smith"
	app.CoApplicantFirstName = &coFirst
	app.CoApplicantLastName = &coLast

	text := RenderLeaseText(app, "Parkrow Property Management LLC", app.LeaseGeneratedOn, TermsFromApplication(app))
	assert.Contains(t, text, "Jane Doe and John Smith")
}

func TestRenderLeaseTextAnchors(t *testing.T) {
	app := testApplication()
	text := RenderLeaseText(app, "Parkrow Property Management LLC", app.LeaseGeneratedOn, TermsFromApplication(app))

	lines := strings.Split(text, "\n")
	assert.Contains(t, lines, TenantSignatureAnchor)
	assert.Contains(t, lines, LandlordSignatureAnchor)

	// Tenant anchor must come before the landlord anchor, with the
	// placeholder rule between them
	tenantIdx := indexOf(lines, TenantSignatureAnchor)
	landlordIdx := indexOf(lines, LandlordSignatureAnchor)
	assert.Greater(t, landlordIdx, tenantIdx)
	assert.Contains(t, lines[tenantIdx+2], "X ____")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "2500", formatAmount(2500))
	assert.Equal(t, "1234.5", formatAmount(1234.5))
	assert.Equal(t, "500", formatAmount(500))
}

func TestParseCalendarDate(t *testing.T) {
	y, m, d, ok := parseCalendarDate("2026-03-01")
	assert.True(t, ok)
	assert.Equal(t, 2026, y)
	assert.Equal(t, 3, m)
	assert.Equal(t, 1, d)

	_, _, _, ok = parseCalendarDate("03/01/2026")
	assert.False(t, ok)
	_, _, _, ok = parseCalendarDate("2026-13-01")
	assert.False(t, ok)
	_, _, _, ok = parseCalendarDate("")
	assert.False(t, ok)
}

func indexOf(lines []string, target string) int {
	for i, l := range lines {
		if l == target {
			return i
		}
	}
	return -1
}
