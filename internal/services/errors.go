package services

import "errors"

// Common service errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrUnauthorized       = errors.New("not authorized")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrConsentRequired    = errors.New("electronic signature consent is required")
	ErrLeaseNotGenerated  = errors.New("lease has not been generated for this application")
	ErrLeaseNotSigned     = errors.New("lease has not been signed")
	ErrUnsupportedImage   = errors.New("signature image must be PNG or JPEG")
	ErrUnknownMethod      = errors.New("signature method must be type or draw")
	ErrSignatureRequired  = errors.New("a typed name or signature image is required")
	ErrDocumentEngine     = errors.New("lease document could not be produced")
	ErrDuplicateReference = errors.New("a payment with this reference already exists")
)
