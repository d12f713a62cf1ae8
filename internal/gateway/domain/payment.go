package domain

import (
	"regexp"
	"slices"
)

const StatusCompleted = "completed"

const (
	MsgMissingFields       = "Missing required fields: recipientEmail, amount, currency"
	MsgInvalidEmail        = "Invalid email format"
	MsgInvalidAmount       = "Amount must be a positive number"
	MsgUnsupportedCurrency = "Unsupported currency. Supported currencies: USD, EUR, GBP"
)

var (
	emailPattern        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	supportedCurrencies = []string{"USD", "EUR", "GBP"}
)

// Payment is the record kept for every accepted charge.
type Payment struct {
	ID             string  `json:"id"`
	RecipientEmail string  `json:"recipientEmail"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Timestamp      string  `json:"timestamp"`
	Status         string  `json:"status"`
}

type Transaction struct {
	ID             string  `json:"id"`
	RecipientEmail string  `json:"recipientEmail"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Timestamp      string  `json:"timestamp"`
	Status         string  `json:"status"`
	Description    string  `json:"description"`
}

func (p Payment) Transaction() Transaction {
	return Transaction{
		ID:             p.ID,
		RecipientEmail: p.RecipientEmail,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Timestamp:      p.Timestamp,
		Status:         p.Status,
		Description:    "Payment sent to " + p.RecipientEmail,
	}
}

// Input is a payment body as the client sent it. Fields keep their JSON
// types so that a string amount can be told apart from a missing one.
type Input struct {
	RecipientEmail any `json:"recipientEmail"`
	Amount         any `json:"amount"`
	Currency       any `json:"currency"`
}

// Checked is an Input that passed Check.
type Checked struct {
	RecipientEmail string
	Amount         float64
	Currency       string
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Check applies the rules in order and stops at the first one that fails.
func Check(in Input) (Checked, error) {
	if !present(in.RecipientEmail) || !present(in.Amount) || !present(in.Currency) {
		return Checked{}, &ValidationError{Message: MsgMissingFields}
	}
	email, ok := in.RecipientEmail.(string)
	if !ok || !emailPattern.MatchString(email) {
		return Checked{}, &ValidationError{Message: MsgInvalidEmail}
	}
	amount, ok := in.Amount.(float64)
	if !ok || !(amount > 0) {
		return Checked{}, &ValidationError{Message: MsgInvalidAmount}
	}
	currency, ok := in.Currency.(string)
	if !ok || !slices.Contains(supportedCurrencies, currency) {
		return Checked{}, &ValidationError{Message: MsgUnsupportedCurrency}
	}
	return Checked{RecipientEmail: email, Amount: amount, Currency: currency}, nil
}

// present reports whether v is a value a client would consider filled in.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case float64:
		return x != 0
	case bool:
		return x
	default:
		return true
	}
}
