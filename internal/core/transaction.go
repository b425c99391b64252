package core

import (
	"strings"
	"time"
)

const (
	MethodUPI        PaymentMethod = "UPI"
	MethodCard       PaymentMethod = "Card"
	MethodNetBanking PaymentMethod = "NetBanking"
	MethodCash       PaymentMethod = "Cash"
)

const (
	StatusActive  TransactionStatus = "Active"
	StatusTrashed TransactionStatus = "Trashed"
)

type (
	PaymentMethod string

	TransactionStatus string

	// Transaction is one ledger entry. Amounts are whole rupees.
	// Trashed entries keep their data and can be restored; only a
	// hard delete removes them.
	Transaction struct {
		ID            string            `json:"id"`
		Title         string            `json:"title"`
		Category      string            `json:"category"`
		Amount        int               `json:"amount"`
		Timestamp     time.Time         `json:"timestamp"`
		PaymentMethod PaymentMethod     `json:"paymentMethod"`
		ReceiptURL    string            `json:"receiptUrl,omitempty"`
		Status        TransactionStatus `json:"status"`
		DeletedAt     *time.Time        `json:"deletedAt,omitempty"`
		CreatedAt     time.Time         `json:"createdAt"`
		UpdatedAt     time.Time         `json:"updatedAt"`
	}

	// NewTransaction carries the caller-supplied fields of a create.
	NewTransaction struct {
		Title         string        `json:"title"`
		Category      string        `json:"category"`
		Amount        int           `json:"amount"`
		Timestamp     time.Time     `json:"timestamp"`
		PaymentMethod PaymentMethod `json:"paymentMethod"`
		ReceiptURL    string        `json:"receiptUrl"`
	}

	// TransactionPatch is a partial update; nil fields are untouched.
	TransactionPatch struct {
		Title         *string        `json:"title"`
		Category      *string        `json:"category"`
		Amount        *int           `json:"amount"`
		Timestamp     *time.Time     `json:"timestamp"`
		PaymentMethod *PaymentMethod `json:"paymentMethod"`
		ReceiptURL    *string        `json:"receiptUrl"`
	}
)

// ValidPaymentMethod reports whether m is one of the known methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodUPI, MethodCard, MethodNetBanking, MethodCash:
		return true
	}
	return false
}

// Active reports whether the transaction is not trashed.
func (t Transaction) Active() bool {
	return t.Status == StatusActive
}

// Clone returns a deep copy.
func (t Transaction) Clone() Transaction {
	if t.DeletedAt != nil {
		at := *t.DeletedAt
		t.DeletedAt = &at
	}
	return t
}

func (n NewTransaction) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return NewValidationError("title is required")
	}
	if len(n.Title) > 200 {
		return NewValidationError("title too long (max 200 characters)")
	}
	if strings.TrimSpace(n.Category) == "" {
		return NewValidationError("category is required")
	}
	if n.Amount <= 0 {
		return NewValidationError("amount must be positive")
	}
	if n.Timestamp.IsZero() {
		return NewValidationError("timestamp is required")
	}
	if !ValidPaymentMethod(n.PaymentMethod) {
		return NewValidationError("unknown payment method %q", n.PaymentMethod)
	}
	return nil
}

func (p TransactionPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return NewValidationError("title cannot be empty")
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return NewValidationError("category cannot be empty")
	}
	if p.Amount != nil && *p.Amount <= 0 {
		return NewValidationError("amount must be positive")
	}
	if p.Timestamp != nil && p.Timestamp.IsZero() {
		return NewValidationError("timestamp cannot be zero")
	}
	if p.PaymentMethod != nil && !ValidPaymentMethod(*p.PaymentMethod) {
		return NewValidationError("unknown payment method %q", *p.PaymentMethod)
	}
	return nil
}

// Apply copies the set fields of the patch onto t and bumps UpdatedAt.
func (p TransactionPatch) Apply(t *Transaction, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Timestamp != nil {
		t.Timestamp = p.Timestamp.UTC()
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod = *p.PaymentMethod
	}
	if p.ReceiptURL != nil {
		t.ReceiptURL = *p.ReceiptURL
	}
	t.UpdatedAt = now
}
