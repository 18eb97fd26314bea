package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/parkrow/parkrow-api/internal/config"
	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/pkg/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// SendLeaseReady tells the applicant their lease is ready to review and sign
func (s *EmailService) SendLeaseReady(ctx context.Context, user *models.User, app *models.Application) error {
	data := struct {
		Name    string
		Address string
		AppURL  string
	}{
		Name:    user.FullName,
		Address: app.FullAddress(),
		AppURL:  s.config.AppURL,
	}

	body, err := s.renderTemplate("lease_ready.html", data)
	if err != nil {
		return err
	}
	return s.send(user.Email, "Your lease is ready to sign", body)
}

// SendLeaseSigned confirms execution and points at the signed document
func (s *EmailService) SendLeaseSigned(ctx context.Context, user *models.User, app *models.Application) error {
	signedName := ""
	signedAt := ""
	if app.LeaseSignature != nil {
		signedName = app.LeaseSignature.SignedName
		if app.LeaseSignature.SignedAt != nil {
			signedAt = app.LeaseSignature.SignedAt.UTC().Format("January 2, 2006")
		}
	}

	data := struct {
		Name       string
		Address    string
		SignedName string
		SignedAt   string
		AppURL     string
	}{
		Name:       user.FullName,
		Address:    app.FullAddress(),
		SignedName: signedName,
		SignedAt:   signedAt,
		AppURL:     s.config.AppURL,
	}

	body, err := s.renderTemplate("lease_signed.html", data)
	if err != nil {
		return err
	}
	return s.send(user.Email, "Your lease has been signed", body)
}

// SendPaymentReceived confirms a recorded payment
func (s *EmailService) SendPaymentReceived(ctx context.Context, user *models.User, payment *models.Payment) error {
	data := struct {
		Name      string
		Amount    string
		Reference string
		AppURL    string
	}{
		Name:      user.FullName,
		Amount:    fmt.Sprintf("$%.2f", payment.Amount),
		Reference: payment.Reference,
		AppURL:    s.config.AppURL,
	}

	body, err := s.renderTemplate("payment_received.html", data)
	if err != nil {
		return err
	}
	return s.send(user.Email, "Payment received", body)
}

func (s *EmailService) send(to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return err
	}
	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", to, subject))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
