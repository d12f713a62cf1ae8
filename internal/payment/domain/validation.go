package domain

import (
	"math"
	"regexp"
	"strings"
)

const (
	MsgInvalidEmail        = "Invalid email format"
	MsgNonPositiveAmount   = "Amount must be greater than 0"
	msgUnsupportedCurrency = "Unsupported currency. Supported: "
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validate checks every rule and collects all violations in rule order.
func Validate(req PaymentRequest) ValidationResult {
	errs := make([]string, 0, 3)

	if !emailPattern.MatchString(req.RecipientEmail) {
		errs = append(errs, MsgInvalidEmail)
	}
	if math.IsNaN(req.Amount) || req.Amount <= 0 {
		errs = append(errs, MsgNonPositiveAmount)
	}
	if _, ok := LookupCurrency(req.Currency); !ok {
		errs = append(errs, UnsupportedCurrencyMessage())
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func UnsupportedCurrencyMessage() string {
	codes := make([]string, 0, 3)
	for _, c := range Currencies() {
		codes = append(codes, c.Code)
	}
	return msgUnsupportedCurrency + strings.Join(codes, ", ")
}
