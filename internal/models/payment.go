package models

import (
	"time"
)

// Payment represents money collected against an application: the card path is
// record-keeping for the processor's hosted checkout, the check path is manual.
type Payment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ApplicationID uint       `gorm:"not null;index" json:"application_id"`
	PaymentType   string     `gorm:"not null" json:"payment_type"`
	Method        string     `gorm:"not null" json:"method"`
	Status        string     `gorm:"default:pending;index" json:"status"`
	Amount        float64    `gorm:"type:decimal;not null" json:"amount"`
	Reference     string     `gorm:"uniqueIndex;not null" json:"reference"` // checkout session id or check number
	Memo          *string    `gorm:"type:text" json:"memo"`
	ReceiptPath   *string    `json:"receipt_path"`
	PaidAt        *time.Time `json:"paid_at"`
	RecordedByID  *uint      `json:"recorded_by_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Associations
	Application Application `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	RecordedBy  *User       `gorm:"foreignKey:RecordedByID" json:"recorded_by,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment type constants
const (
	PaymentTypeApplicationFee = "application_fee"
	PaymentTypeDeposit        = "deposit"
	PaymentTypeRent           = "rent"
)

// Payment method constants
const (
	PaymentMethodCard  = "card"
	PaymentMethodCheck = "check"
)

// Payment status constants
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// IsPaid returns true once the payment has settled
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID            uint       `json:"id"`
	ApplicationID uint       `json:"application_id"`
	PaymentType   string     `json:"payment_type"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	Amount        float64    `json:"amount"`
	Reference     string     `json:"reference"`
	Memo          *string    `json:"memo"`
	PaidAt        *time.Time `json:"paid_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		ApplicationID: p.ApplicationID,
		PaymentType:   p.PaymentType,
		Method:        p.Method,
		Status:        p.Status,
		Amount:        p.Amount,
		Reference:     p.Reference,
		Memo:          p.Memo,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
}
