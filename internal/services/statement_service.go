package services

import (
	"bytes"
	"context"
	"embed"
	"encoding/csv"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/parkrow/parkrow-api/internal/config"
	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

//go:embed templates/statements/*.html
var statementTemplates embed.FS

// StatementService produces account statements and payment ledger exports
type StatementService struct {
	applicationRepo repository.ApplicationRepository
	paymentRepo     repository.PaymentRepository
	cfg             *config.Config
}

// NewStatementService creates the statement service
func NewStatementService(
	applicationRepo repository.ApplicationRepository,
	paymentRepo repository.PaymentRepository,
	cfg *config.Config,
) *StatementService {
	return &StatementService{
		applicationRepo: applicationRepo,
		paymentRepo:     paymentRepo,
		cfg:             cfg,
	}
}

type statementRow struct {
	Date      string
	Type      string
	Method    string
	Reference string
	Status    string
	Amount    string
}

type statementData struct {
	Landlord   string
	TenantName string
	Address    string
	Date       string
	Rows       []statementRow
	TotalPaid  string
}

// GenerateStatementPDF renders an account statement for one application as a
// PDF, HTML first and then through wkhtmltopdf.
func (s *StatementService) GenerateStatementPDF(ctx context.Context, applicationID uint) (*bytes.Buffer, string, error) {
	app, err := s.applicationRepo.FindByIDWithDetails(ctx, applicationID)
	if err != nil {
		return nil, "", ErrNotFound
	}

	payments, err := s.paymentRepo.FindByApplication(ctx, app.ID)
	if err != nil {
		return nil, "", err
	}

	data := statementData{
		Landlord:   s.cfg.LandlordName,
		TenantName: app.TenantLegalNames(),
		Address:    app.FullAddress(),
		Date:       time.Now().UTC().Format("January 2, 2006"),
	}
	totalPaid := 0.0
	for _, p := range payments {
		date := ""
		if p.PaidAt != nil {
			date = p.PaidAt.Format("2006-01-02")
		}
		data.Rows = append(data.Rows, statementRow{
			Date:      date,
			Type:      p.PaymentType,
			Method:    p.Method,
			Reference: p.Reference,
			Status:    p.Status,
			Amount:    fmt.Sprintf("$%.2f", p.Amount),
		})
		if p.IsPaid() {
			totalPaid += p.Amount
		}
	}
	data.TotalPaid = fmt.Sprintf("$%.2f", totalPaid)

	tmpl, err := template.ParseFS(statementTemplates, "templates/statements/statement.html")
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse statement template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, "", fmt.Errorf("failed to execute statement template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(buf.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, "", fmt.Errorf("failed to create pdf: %w", err)
	}

	filename := fmt.Sprintf("statement_%d_%s.pdf", app.ID, time.Now().Format("2006-01-02"))
	return pdfg.Buffer(), filename, nil
}

// ExportLedgerCSV exports the full payment ledger as CSV
func (s *StatementService) ExportLedgerCSV(ctx context.Context, query *repository.ListQuery) ([]byte, string, error) {
	payments, _, err := s.paymentRepo.List(ctx, query)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Payment Ledger", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"ID", "Application", "Tenant", "Type", "Method", "Reference", "Status", "Amount", "Paid At"})

	for _, p := range payments {
		paidAt := ""
		if p.PaidAt != nil {
			paidAt = p.PaidAt.Format("2006-01-02")
		}
		_ = writer.Write([]string{
			fmt.Sprintf("%d", p.ID),
			fmt.Sprintf("%d", p.ApplicationID),
			p.Application.FullName(),
			p.PaymentType,
			p.Method,
			p.Reference,
			p.Status,
			fmt.Sprintf("%.2f", p.Amount),
			paidAt,
		})
	}

	writer.Flush()
	filename := fmt.Sprintf("payment_ledger_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportLedgerXLSX exports the full payment ledger as a styled workbook
func (s *StatementService) ExportLedgerXLSX(ctx context.Context, query *repository.ListQuery) ([]byte, string, error) {
	payments, _, err := s.paymentRepo.List(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Ledger"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Payment Ledger")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	_ = f.SetCellValue(sheet, "B1", time.Now().Format("2006-01-02 15:04"))

	headers := []string{"ID", "Application", "Tenant", "Type", "Method", "Reference", "Status", "Amount", "Paid At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	total := 0.0
	for row, p := range payments {
		paidAt := ""
		if p.PaidAt != nil {
			paidAt = p.PaidAt.Format("2006-01-02")
		}
		values := []interface{}{
			p.ID, p.ApplicationID, p.Application.FullName(), p.PaymentType,
			p.Method, p.Reference, p.Status, p.Amount, paidAt,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+4)
			_ = f.SetCellValue(sheet, cell, v)
		}
		if p.Status == models.PaymentStatusPaid {
			total += p.Amount
		}
	}

	totalRow := len(payments) + 5
	cell, _ := excelize.CoordinatesToCellName(7, totalRow)
	_ = f.SetCellValue(sheet, cell, "Total Paid")
	cell, _ = excelize.CoordinatesToCellName(8, totalRow)
	_ = f.SetCellValue(sheet, cell, total)

	_ = f.SetColWidth(sheet, "A", "I", 16)

	out, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("payment_ledger_%s.xlsx", time.Now().Format("2006-01-02"))
	return out.Bytes(), filename, nil
}
