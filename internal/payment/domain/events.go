package domain

import "time"

const EventTransactionRecorded = "TransactionRecorded"

type TransactionRecorded struct {
	TransactionID  string    `json:"transactionId"`
	RecipientEmail string    `json:"recipientEmail"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Status         Status    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewTransactionRecorded(t Transaction) TransactionRecorded {
	return TransactionRecorded{
		TransactionID:  t.ID,
		RecipientEmail: t.RecipientEmail,
		Amount:         t.Amount,
		Currency:       t.Currency,
		Status:         t.Status,
		Timestamp:      t.Timestamp,
	}
}
