package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/parkrow/parkrow-api/internal/config"
	"github.com/parkrow/parkrow-api/internal/jobs"
	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/parkrow/parkrow-api/pkg/logger"
)

// GenerateLeaseInput carries optional term overrides supplied at generation
// time. Zero values keep whatever is already on the application.
type GenerateLeaseInput struct {
	StartDate    string  `json:"lease_start_date"`
	EndDate      string  `json:"lease_end_date"`
	RentalAmount float64 `json:"rental_amount"`
	Deposit      float64 `json:"deposit_amount"`
}

// SignLeaseInput is the signing request: the consent flag, the capture
// method, the typed or drawn signatures, and the client metadata recorded in
// the audit trail.
type SignLeaseInput struct {
	Consent         bool   `json:"consent"`
	Method          string `json:"method"` // "type" or "draw"
	SignedName      string `json:"signed_name"`
	SignatureData   string `json:"signature_data"` // data URL, draw method only
	CoSignedName    string `json:"co_signed_name"`
	CoSignatureData string `json:"co_signature_data"`
	IPAddress       string `json:"-"`
	UserAgent       string `json:"-"`
}

// LeasePreview is the unsigned lease as the tenant will see it, plus the hash
// that will be recorded if this exact text is signed.
type LeasePreview struct {
	Text        string `json:"text"`
	ContentHash string `json:"content_hash"`
	GeneratedOn string `json:"generated_on"`
}

// LeaseService owns lease generation, preview, signing, and integrity checks
type LeaseService struct {
	applicationRepo repository.ApplicationRepository
	userRepo        repository.UserRepository
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	worker          *jobs.Worker
	cfg             *config.Config

	// compose produces the signed PDF. It is a field so document engine
	// failures can be exercised in tests without a PDF backend.
	compose func(ComposeInput) ([]byte, error)
}

// NewLeaseService creates the lease service
func NewLeaseService(
	applicationRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
	cfg *config.Config,
) *LeaseService {
	return &LeaseService{
		applicationRepo: applicationRepo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		worker:          worker,
		cfg:             cfg,
		compose:         ComposeSignedLease,
	}
}

// Generate marks the lease as generated for an approved application, applying
// any term overrides and stamping the generation date that the lease prose
// and every later re-render will use. Regenerating refreshes the date.
func (s *LeaseService) Generate(ctx context.Context, applicationID uint, input GenerateLeaseInput) (*models.Application, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, ErrNotFound
	}

	if app.Status != models.ApplicationStatusApproved {
		return nil, fmt.Errorf("%w: lease can only be generated for approved applications", ErrInvalidState)
	}
	if app.LeaseSigned {
		return nil, fmt.Errorf("%w: signed lease must be removed before regenerating", ErrInvalidState)
	}

	if input.StartDate != "" {
		app.LeaseStartDate = input.StartDate
	}
	if input.EndDate != "" {
		app.LeaseEndDate = input.EndDate
	}
	if input.RentalAmount > 0 {
		app.RentalAmount = input.RentalAmount
	}
	if input.Deposit > 0 {
		app.DepositAmount = input.Deposit
	}

	app.LeaseGenerated = true
	app.LeaseGeneratedOn = TodayCalendarDate()

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		if err := s.notificationSvc.NotifyUser(jobCtx, app.ApplicantUserID,
			"Your lease is ready",
			fmt.Sprintf("The lease for %s is ready for your review and signature.", app.FullAddress()),
			models.NotificationTypeLeaseReady); err != nil {
			return err
		}
		applicant, err := s.userRepo.FindByID(jobCtx, app.ApplicantUserID)
		if err != nil {
			return err
		}
		return s.emailSvc.SendLeaseReady(jobCtx, applicant, app)
	})

	logger.Info(fmt.Sprintf("Lease generated for application %d", app.ID))
	return app, nil
}

// Preview renders the lease text for an application without persisting
// anything. The returned hash matches what signing this exact text records.
func (s *LeaseService) Preview(ctx context.Context, applicationID uint) (*LeasePreview, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !app.LeaseGenerated {
		return nil, ErrLeaseNotGenerated
	}

	text := RenderLeaseText(app, s.cfg.LandlordName, app.LeaseGeneratedOn, TermsFromApplication(app))
	return &LeasePreview{
		Text:        text,
		ContentHash: LeaseContentHash(text),
		GeneratedOn: app.LeaseGeneratedOn,
	}, nil
}

// Sign executes the lease. Consent is verified before anything else. On
// success the signed file, the signature record, the audit record, and the
// signed flags are written in a single update; a document engine failure
// leaves the application untouched.
func (s *LeaseService) Sign(ctx context.Context, applicationID, signerUserID uint, input SignLeaseInput) (*models.Application, error) {
	if !input.Consent {
		return nil, ErrConsentRequired
	}

	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !app.LeaseGenerated {
		return nil, ErrLeaseNotGenerated
	}

	signedName := input.SignedName
	if signedName == "" {
		signedName = app.FullName()
	}
	primary, err := BuildSignatureArtifact(input.Method, signedName, input.SignatureData)
	if err != nil {
		return nil, err
	}

	signers := []ComposeSigner{{Name: signedName, Artifact: primary}}
	var coSignedName *string
	if app.HasCoApplicant() && (input.CoSignedName != "" || input.CoSignatureData != "") {
		coName := input.CoSignedName
		if coName == "" {
			coName = app.CoApplicantFullName()
		}
		coArtifact, err := BuildSignatureArtifact(input.Method, coName, input.CoSignatureData)
		if err != nil {
			return nil, err
		}
		signers = append(signers, ComposeSigner{Name: coName, Artifact: coArtifact})
		coSignedName = &coName
	}

	text := RenderLeaseText(app, s.cfg.LandlordName, app.LeaseGeneratedOn, TermsFromApplication(app))
	contentHash := LeaseContentHash(text)
	signedAt := time.Now().UTC()

	pdfBytes, err := s.compose(ComposeInput{
		LeaseText:   text,
		Signers:     signers,
		SignedAt:    signedAt,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		ContentHash: contentHash,
	})
	if err != nil {
		sentry.CaptureException(err)
		logger.Error(fmt.Sprintf("Lease composition failed for application %d: %v", app.ID, err))
		return nil, ErrDocumentEngine
	}

	filename := fmt.Sprintf("lease_%d.pdf", app.ID)
	app.SignedLeaseFile = &models.SignedLeaseFile{
		Filename:     filename,
		OriginalName: filename,
		MimeType:     "application/pdf",
		ByteSize:     len(pdfBytes),
		UploadedAt:   &signedAt,
		Content:      base64.StdEncoding.EncodeToString(pdfBytes),
	}
	app.LeaseSignature = &models.LeaseSignature{
		SignedName: signedName,
		Method:     input.Method,
		SignedAt:   &signedAt,
	}
	app.LeaseAudit = &models.LeaseAudit{
		ContentHash:    contentHash,
		SignedByUserID: signerUserID,
		SignedName:     signedName,
		CoSignedName:   coSignedName,
		ConsentGiven:   true,
		IPAddress:      input.IPAddress,
		UserAgent:      input.UserAgent,
		SignedAt:       &signedAt,
		SchemaVersion:  models.LeaseAuditSchemaVersion,
	}
	app.LeaseSigned = true
	app.LeaseSignedAt = &signedAt

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		if err := s.auditSvc.Log(jobCtx, signerUserID, "SIGN_LEASE", "Application", app.ID,
			fmt.Sprintf("Lease signed by %s (%s)", signedName, contentHash),
			input.IPAddress, input.UserAgent); err != nil {
			return err
		}
		if err := s.notificationSvc.NotifyAdmins(jobCtx,
			"Lease signed",
			fmt.Sprintf("%s signed the lease for application #%d.", signedName, app.ID),
			models.NotificationTypeLeaseSigned); err != nil {
			return err
		}
		applicant, err := s.userRepo.FindByID(jobCtx, app.ApplicantUserID)
		if err != nil {
			return err
		}
		return s.emailSvc.SendLeaseSigned(jobCtx, applicant, app)
	})

	logger.Info(fmt.Sprintf("Lease signed for application %d by user %d", app.ID, signerUserID))
	return app, nil
}

// Download returns the signed lease document bytes
func (s *LeaseService) Download(ctx context.Context, applicationID uint) (*models.SignedLeaseFile, []byte, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, nil, ErrNotFound
	}
	if !app.LeaseSigned || app.SignedLeaseFile == nil {
		return nil, nil, ErrLeaseNotSigned
	}

	data, err := base64.StdEncoding.DecodeString(app.SignedLeaseFile.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("stored lease content is corrupt: %w", err)
	}
	return app.SignedLeaseFile, data, nil
}

// Remove discards the signed lease and everything recorded with it, returning
// the application to the generated-but-unsigned state.
func (s *LeaseService) Remove(ctx context.Context, applicationID, actorUserID uint) (*models.Application, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !app.LeaseSigned {
		return nil, ErrLeaseNotSigned
	}

	app.ClearSignedLease()
	if err := s.applicationRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		return s.auditSvc.Log(jobCtx, actorUserID, "REMOVE_SIGNED_LEASE", "Application", app.ID,
			"Signed lease removed", "", "")
	})

	return app, nil
}

// VerifyIntegrity re-renders the lease from the application's current fields
// and compares the hash against the one recorded at signing. A mismatch means
// a field that feeds the lease prose changed after execution.
func (s *LeaseService) VerifyIntegrity(ctx context.Context, applicationID uint) (bool, string, string, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return false, "", "", ErrNotFound
	}
	if !app.LeaseSigned || app.LeaseAudit == nil {
		return false, "", "", ErrLeaseNotSigned
	}

	text := RenderLeaseText(app, s.cfg.LandlordName, app.LeaseGeneratedOn, TermsFromApplication(app))
	current := LeaseContentHash(text)
	stored := app.LeaseAudit.ContentHash
	return current == stored, current, stored, nil
}

// SweepSignedLeases re-verifies every signed lease and alerts admins about
// any whose current render no longer matches the signed hash. Runs nightly.
func (s *LeaseService) SweepSignedLeases(ctx context.Context) error {
	apps, err := s.applicationRepo.FindSignedLeases(ctx)
	if err != nil {
		return err
	}

	var mismatches int
	for i := range apps {
		app := &apps[i]
		if app.LeaseAudit == nil {
			continue
		}
		text := RenderLeaseText(app, s.cfg.LandlordName, app.LeaseGeneratedOn, TermsFromApplication(app))
		if LeaseContentHash(text) == app.LeaseAudit.ContentHash {
			continue
		}
		mismatches++
		logger.Error(fmt.Sprintf("Lease integrity mismatch for application %d", app.ID))
		if err := s.notificationSvc.NotifyAdmins(ctx,
			"Lease integrity alert",
			fmt.Sprintf("Application #%d no longer reproduces its signed lease text.", app.ID),
			models.NotificationTypeIntegrityAlert); err != nil {
			logger.Error(fmt.Sprintf("Failed to notify admins of integrity mismatch: %v", err))
		}
	}

	logger.Info(fmt.Sprintf("Lease integrity sweep finished: %d checked, %d mismatched", len(apps), mismatches))
	return nil
}
