package models

import (
	"strings"
	"time"
)

// Application represents a tenant rental application and its lease lifecycle
type Application struct {
	ID              uint `gorm:"primaryKey" json:"id"`
	ApplicantUserID uint `gorm:"not null;index" json:"applicant_user_id"`

	// Applicant identity as it appears on the lease
	FirstName            string  `gorm:"not null" json:"first_name"`
	LastName             string  `gorm:"not null" json:"last_name"`
	CoApplicantFirstName *string `json:"co_applicant_first_name"`
	CoApplicantLastName  *string `json:"co_applicant_last_name"`
	Phone                string  `json:"phone"`

	// Mailing address of the rental unit
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`

	Status          string  `gorm:"default:draft;index" json:"status"`
	RejectionReason *string `gorm:"type:text" json:"rejection_reason"`

	// Lease terms. Dates are stored as YYYY-MM-DD strings, not timestamps,
	// so the authored calendar day survives every timezone.
	LeaseStartDate string  `gorm:"size:10" json:"lease_start_date"`
	LeaseEndDate   string  `gorm:"size:10" json:"lease_end_date"`
	RentalAmount   float64 `gorm:"type:decimal" json:"rental_amount"`
	DepositAmount  float64 `gorm:"type:decimal" json:"deposit_amount"`

	// Lease lifecycle flags. LeaseGeneratedOn is the calendar date interpolated
	// into the lease prose; re-rendering with it reproduces the exact text.
	LeaseGenerated   bool       `gorm:"default:false" json:"lease_generated"`
	LeaseGeneratedOn string     `gorm:"size:10" json:"lease_generated_on"`
	LeaseSigned      bool       `gorm:"default:false;index" json:"lease_signed"`
	LeaseSignedAt    *time.Time `json:"lease_signed_at"`

	// Populated together on signing, cleared together on removal
	SignedLeaseFile *SignedLeaseFile `gorm:"embedded;embeddedPrefix:lease_file_" json:"signed_lease_file,omitempty"`
	LeaseSignature  *LeaseSignature  `gorm:"embedded;embeddedPrefix:lease_signature_" json:"lease_signature,omitempty"`
	LeaseAudit      *LeaseAudit      `gorm:"embedded;embeddedPrefix:lease_audit_" json:"lease_audit,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at"`
	ApprovedAt  *time.Time `gorm:"index" json:"approved_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Associations
	ApplicantUser User      `gorm:"foreignKey:ApplicantUserID" json:"applicant_user,omitempty"`
	Payments      []Payment `gorm:"foreignKey:ApplicationID" json:"payments,omitempty"`
}

// TableName specifies the table name for Application
func (Application) TableName() string {
	return "applications"
}

// SignedLeaseFile is the signed lease artifact, stored base64-encoded so the
// binary can live inside the application row without a blob store.
type SignedLeaseFile struct {
	Filename     string     `json:"filename"`
	OriginalName string     `json:"original_name"`
	MimeType     string     `json:"mimetype"`
	ByteSize     int        `json:"byte_size"`
	UploadedAt   *time.Time `json:"uploaded_at"`
	Content      string     `gorm:"type:text" json:"-"`
}

// LeaseSignature records how the signer provided their signature
type LeaseSignature struct {
	SignedName string     `json:"signed_name"`
	Method     string     `gorm:"size:10" json:"method"` // "type" or "draw"
	SignedAt   *time.Time `json:"signed_at"`
}

// LeaseAudit is the permanent record of who signed, when, and from where.
// It is never edited after creation; removing a signed lease clears it whole.
type LeaseAudit struct {
	ContentHash    string     `json:"content_hash"` // "sha256:" + lowercase hex
	SignedByUserID uint       `json:"signed_by_user_id"`
	SignedName     string     `json:"signed_name"`
	CoSignedName   *string    `json:"co_signed_name,omitempty"`
	ConsentGiven   bool       `json:"consent_given"`
	IPAddress      string     `gorm:"size:45" json:"ip_address"`
	UserAgent      string     `gorm:"size:255" json:"user_agent"`
	SignedAt       *time.Time `json:"signed_at"`
	SchemaVersion  string     `gorm:"size:10" json:"schema_version"`
}

// Application status constants
const (
	ApplicationStatusDraft     = "draft"
	ApplicationStatusSubmitted = "submitted"
	ApplicationStatusApproved  = "approved"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusCancelled = "cancelled"
)

// Signature method constants
const (
	SignatureMethodType = "type"
	SignatureMethodDraw = "draw"
)

// LeaseAuditSchemaVersion tags audit records so the shape can evolve
const LeaseAuditSchemaVersion = "v1"

// MaySubmit returns true if the application can transition to submitted
func (a *Application) MaySubmit() bool {
	return a.Status == ApplicationStatusDraft || a.Status == ApplicationStatusRejected
}

// MayApprove returns true if the application can be approved
func (a *Application) MayApprove() bool {
	return a.Status == ApplicationStatusSubmitted
}

// MayReject returns true if the application can be rejected
func (a *Application) MayReject() bool {
	return a.Status == ApplicationStatusSubmitted
}

// MayCancel returns true if the application can be cancelled
func (a *Application) MayCancel() bool {
	return a.Status != ApplicationStatusCancelled && !a.LeaseSigned
}

// MayEdit returns true while the applicant can still change the form
func (a *Application) MayEdit() bool {
	return a.Status == ApplicationStatusDraft || a.Status == ApplicationStatusRejected
}

// FullName returns the primary applicant's legal name
func (a *Application) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// HasCoApplicant returns true when a co-applicant name is on file
func (a *Application) HasCoApplicant() bool {
	return a.CoApplicantFullName() != ""
}

// CoApplicantFullName returns the co-applicant's legal name, or ""
func (a *Application) CoApplicantFullName() string {
	first, last := "", ""
	if a.CoApplicantFirstName != nil {
		first = *a.CoApplicantFirstName
	}
	if a.CoApplicantLastName != nil {
		last = *a.CoApplicantLastName
	}
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// TenantLegalNames returns the name(s) that appear as "Tenant" in the lease,
// primary and co-applicant joined with "and"
func (a *Application) TenantLegalNames() string {
	if co := a.CoApplicantFullName(); co != "" {
		return a.FullName() + " and " + co
	}
	return a.FullName()
}

// FullAddress returns the single-line mailing address of the unit
func (a *Application) FullAddress() string {
	return strings.TrimSpace(a.Street) + ", " + strings.TrimSpace(a.City) + ", " +
		strings.TrimSpace(a.State) + " " + strings.TrimSpace(a.Zip)
}

// ClearSignedLease drops the signed artifact and everything recorded with it.
// The four fields travel together: never one without the others.
func (a *Application) ClearSignedLease() {
	a.LeaseSigned = false
	a.LeaseSignedAt = nil
	a.SignedLeaseFile = nil
	a.LeaseSignature = nil
	a.LeaseAudit = nil
}

// ApplicationResponse is the JSON response format for applications
type ApplicationResponse struct {
	ID                   uint             `json:"id"`
	ApplicantUserID      uint             `json:"applicant_user_id"`
	FirstName            string           `json:"first_name"`
	LastName             string           `json:"last_name"`
	CoApplicantFirstName *string          `json:"co_applicant_first_name"`
	CoApplicantLastName  *string          `json:"co_applicant_last_name"`
	Phone                string           `json:"phone"`
	Street               string           `json:"street"`
	City                 string           `json:"city"`
	State                string           `json:"state"`
	Zip                  string           `json:"zip"`
	Status               string           `json:"status"`
	RejectionReason      *string          `json:"rejection_reason"`
	LeaseStartDate       string           `json:"lease_start_date"`
	LeaseEndDate         string           `json:"lease_end_date"`
	RentalAmount         float64          `json:"rental_amount"`
	DepositAmount        float64          `json:"deposit_amount"`
	LeaseGenerated       bool             `json:"lease_generated"`
	LeaseSigned          bool             `json:"lease_signed"`
	LeaseSignedAt        *time.Time       `json:"lease_signed_at"`
	LeaseSignature       *LeaseSignature  `json:"lease_signature,omitempty"`
	LeaseAudit           *LeaseAudit      `json:"lease_audit,omitempty"`
	SignedLeaseFile      *SignedLeaseFile `json:"signed_lease_file,omitempty"`
	SubmittedAt          *time.Time       `json:"submitted_at"`
	ApprovedAt           *time.Time       `json:"approved_at"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// ToResponse converts Application to ApplicationResponse. The base64 lease
// content is excluded; it only leaves the system through the download endpoint.
func (a *Application) ToResponse() ApplicationResponse {
	return ApplicationResponse{
		ID:                   a.ID,
		ApplicantUserID:      a.ApplicantUserID,
		FirstName:            a.FirstName,
		LastName:             a.LastName,
		CoApplicantFirstName: a.CoApplicantFirstName,
		CoApplicantLastName:  a.CoApplicantLastName,
		Phone:                a.Phone,
		Street:               a.Street,
		City:                 a.City,
		State:                a.State,
		Zip:                  a.Zip,
		Status:               a.Status,
		RejectionReason:      a.RejectionReason,
		LeaseStartDate:       a.LeaseStartDate,
		LeaseEndDate:         a.LeaseEndDate,
		RentalAmount:         a.RentalAmount,
		DepositAmount:        a.DepositAmount,
		LeaseGenerated:       a.LeaseGenerated,
		LeaseSigned:          a.LeaseSigned,
		LeaseSignedAt:        a.LeaseSignedAt,
		LeaseSignature:       a.LeaseSignature,
		LeaseAudit:           a.LeaseAudit,
		SignedLeaseFile:      a.SignedLeaseFile,
		SubmittedAt:          a.SubmittedAt,
		ApprovedAt:           a.ApprovedAt,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}
