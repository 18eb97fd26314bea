package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/parkrow/parkrow-api/internal/models"
)

// Lease rendering constants. The anchors are literal lines in the rendered
// text; the document composer scans for them to place the signature block.
const (
	TenantSignatureAnchor   = "TENANT SIGNATURE(S):"
	LandlordSignatureAnchor = "LANDLORD SIGNATURE:"

	// InvalidDateText is rendered in place of any date that fails to parse,
	// so a bad input produces a visibly wrong document instead of an error.
	InvalidDateText = "Invalid Date"

	// DefaultDepositAmount applies when the application carries no deposit
	DefaultDepositAmount = 500.0

	// moveInDeadlineDays is how many days before lease start the remaining
	// balance is due. The cancellation deadline uses the same offset; the
	// source prose describes them as distinct deadlines but computes one
	// value, and that behavior is preserved.
	moveInDeadlineDays = 60
)

// LeaseTerms are the term overrides interpolated into the lease prose
type LeaseTerms struct {
	StartDate   string // YYYY-MM-DD
	EndDate     string // YYYY-MM-DD
	MonthlyRent float64
	Deposit     float64
}

// TermsFromApplication pulls the stored lease terms off an application,
// applying the deposit default.
func TermsFromApplication(app *models.Application) LeaseTerms {
	terms := LeaseTerms{
		StartDate:   app.LeaseStartDate,
		EndDate:     app.LeaseEndDate,
		MonthlyRent: app.RentalAmount,
		Deposit:     app.DepositAmount,
	}
	if terms.Deposit <= 0 {
		terms.Deposit = DefaultDepositAmount
	}
	return terms
}

// RenderLeaseText produces the plain-text lease for an application. It is a
// pure function: the same application fields and terms always yield
// byte-identical text, which is what makes the content hash meaningful.
// generatedOn is the YYYY-MM-DD date the lease was generated; it is persisted
// on the application so re-renders reproduce the original prose.
func RenderLeaseText(app *models.Application, landlordName, generatedOn string, terms LeaseTerms) string {
	tenants := app.TenantLegalNames()
	address := app.FullAddress()

	executedDate := formatLongDate(generatedOn)
	startDate := formatLongDate(terms.StartDate)
	endDate := formatLongDate(terms.EndDate)
	balanceDueDate := formatDateOffset(terms.StartDate, -moveInDeadlineDays)
	cancelDeadline := formatDateOffset(terms.StartDate, -moveInDeadlineDays)
	rent := formatAmount(terms.MonthlyRent)
	deposit := formatAmount(terms.Deposit)

	var b strings.Builder
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\n")
	}

	w("RESIDENTIAL LEASE AGREEMENT")
	w("")
	w("This Residential Lease Agreement (\"Agreement\") is made and entered into on %s, by and between %s (\"Landlord\") and %s (\"Tenant\"), for the residential premises located at %s (the \"Premises\").", executedDate, landlordName, tenants, address)
	w("")
	w("1. TERM. The term of this Agreement begins on %s and ends on %s, unless terminated earlier in accordance with the provisions of this Agreement. Tenant shall surrender the Premises to Landlord at the end of the term in as good condition as received, ordinary wear and tear excepted.", startDate, endDate)
	w("")
	w("2. RENT. Tenant agrees to pay Landlord as monthly rent the sum of $%s, payable in advance on or before the first day of each calendar month during the term. Rent received after the fifth day of the month is subject to the late charge described in the move-in packet.", rent)
	w("")
	w("3. SECURITY DEPOSIT. Upon execution of this Agreement, Tenant shall deposit with Landlord the sum of $%s as security for the faithful performance of Tenant's obligations. The deposit shall be returned within the period required by law after Tenant vacates, less any lawful deductions.", deposit)
	w("")
	w("4. MOVE-IN BALANCE. The remaining balance of all move-in funds, including the first month's rent and the security deposit, must be received by Landlord no later than %s. Failure to deliver the balance by that date is a default under this Agreement and Landlord may offer the Premises to other applicants.", balanceDueDate)
	w("")
	w("5. CANCELLATION. Tenant may cancel this Agreement without penalty by delivering written notice to Landlord on or before %s. After that date, all sums paid are non-refundable except as required by law.", cancelDeadline)
	w("")
	w("6. OCCUPANCY. The Premises shall be occupied only by the Tenant named above and by the occupants disclosed on the rental application. Guests remaining more than fourteen consecutive days require Landlord's written consent.")
	w("")
	w("7. UTILITIES. Tenant shall arrange and pay for all utilities and services supplied to the Premises, except those Landlord has agreed in writing to provide.")
	w("")
	w("8. MAINTENANCE. Tenant shall keep the Premises clean and sanitary, promptly notify Landlord of any condition requiring repair, and shall not make alterations without Landlord's prior written consent.")
	w("")
	w("9. QUIET ENJOYMENT. Upon performance of the obligations in this Agreement, Tenant shall peacefully hold and enjoy the Premises during the term.")
	w("")
	w("10. ENTIRE AGREEMENT. This Agreement, together with the rental application and any addenda signed by both parties, constitutes the entire agreement between the parties and may be modified only in a writing signed by both.")
	w("")
	w("IN WITNESS WHEREOF, the parties have executed this Agreement as of the date first written above.")
	w("")
	w(TenantSignatureAnchor)
	w("")
	w("X ________________________________    DATE: ______________")
	w("%s (Tenant)", tenants)
	w("")
	w(LandlordSignatureAnchor)
	w("")
	w("X ________________________________    DATE: ______________")
	w("%s (Landlord)", landlordName)

	return b.String()
}

// LeaseContentHash returns the audit-format hash of rendered lease text:
// "sha256:" + lowercase hex digest.
func LeaseContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// parseCalendarDate splits a YYYY-MM-DD string into components. Components
// are extracted directly rather than handed to a general date parser so the
// authored calendar day can never shift across timezones.
func parseCalendarDate(s string) (year, month, day int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, false
	}
	return year, month, day, true
}

// formatLongDate renders YYYY-MM-DD as "January 5, 2026", or the invalid-date
// sentinel when the input does not parse.
func formatLongDate(s string) string {
	year, month, day, ok := parseCalendarDate(s)
	if !ok {
		return InvalidDateText
	}
	return fmt.Sprintf("%s %d, %d", time.Month(month).String(), day, year)
}

// formatDateOffset renders the date offset by the given number of days from a
// YYYY-MM-DD string, in long form. Arithmetic runs on explicit components in
// UTC so the result is the same calendar day everywhere.
func formatDateOffset(s string, days int) string {
	year, month, day, ok := parseCalendarDate(s)
	if !ok {
		return InvalidDateText
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return fmt.Sprintf("%s %d, %d", t.Month().String(), t.Day(), t.Year())
}

// formatAmount renders a money amount without trailing zeros ("2500",
// "2500.5"), matching how amounts read in the lease prose.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TodayCalendarDate returns the current UTC date as YYYY-MM-DD, the format
// persisted in lease_generated_on.
func TodayCalendarDate() string {
	return time.Now().UTC().Format("2006-01-02")
}
