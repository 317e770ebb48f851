package models

import (
	"strings"
	"time"

	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
)

// SMSStatus is the delivery state of a stored message.
type SMSStatus string

const (
	SMSStatusUnread SMSStatus = "unread"
	SMSStatusRead   SMSStatus = "read"
	SMSStatusSent   SMSStatus = "sent"
	SMSStatusDraft  SMSStatus = "draft"
)

// Valid reports whether s is a known message status.
func (s SMSStatus) Valid() bool {
	switch s {
	case SMSStatusUnread, SMSStatusRead, SMSStatusSent, SMSStatusDraft:
		return true
	}
	return false
}

// SMS is a stored message owned by a card. No cross-record invariant beyond
// parent existence.
type SMS struct {
	ID        domain.SMSID  `json:"id"`
	CardID    domain.CardID `json:"card_id"`
	Sender    string        `json:"sender"`
	Recipient string        `json:"recipient"`
	Message   string        `json:"message"`
	Status    SMSStatus     `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

// Validate enforces SMS field invariants.
func (m *SMS) Validate() error {
	if strings.TrimSpace(m.Recipient) == "" {
		return dErrors.New(dErrors.CodeValidation, "sms recipient is required")
	}
	if strings.TrimSpace(m.Message) == "" {
		return dErrors.New(dErrors.CodeValidation, "sms message is required")
	}
	if !m.Status.Valid() {
		return dErrors.New(dErrors.CodeValidation, "sms status must be unread, read, sent, or draft")
	}
	return nil
}
