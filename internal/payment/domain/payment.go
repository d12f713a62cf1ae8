package domain

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// ParseStatus maps a stored status name back to a Status. Unknown names are
// treated as completed, which is how records written by older clients read back.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPending:
		return StatusPending
	case StatusFailed:
		return StatusFailed
	default:
		return StatusCompleted
	}
}

type Currency struct {
	Code   string
	Symbol string
}

var (
	USD = Currency{Code: "USD", Symbol: "$"}
	EUR = Currency{Code: "EUR", Symbol: "€"}
	GBP = Currency{Code: "GBP", Symbol: "£"}
)

// Currencies lists the supported currencies in display order.
func Currencies() []Currency {
	return []Currency{USD, EUR, GBP}
}

func LookupCurrency(code string) (Currency, bool) {
	for _, c := range Currencies() {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

type PaymentRequest struct {
	RecipientEmail string  `json:"recipientEmail"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
}

// PaymentResponse is what the gateway answers. TransactionID and Timestamp are
// only set when Success is true.
type PaymentResponse struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	TransactionID *string `json:"transactionId,omitempty"`
	Timestamp     *string `json:"timestamp,omitempty"`
}

type Transaction struct {
	ID             string    `json:"id"`
	RecipientEmail string    `json:"recipientEmail"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Timestamp      time.Time `json:"timestamp"`
	Status         Status    `json:"status"`
	Description    *string   `json:"description,omitempty"`
}

func NewCompletedTransaction(id string, req PaymentRequest, now time.Time) Transaction {
	desc := "Payment sent to " + req.RecipientEmail
	return Transaction{
		ID:             id,
		RecipientEmail: req.RecipientEmail,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Timestamp:      now.UTC(),
		Status:         StatusCompleted,
		Description:    &desc,
	}
}

// ParseTimestamp reads an ISO-8601 timestamp as written by Transaction's JSON
// encoding and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
