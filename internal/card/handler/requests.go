package handler

import (
	"strings"

	"simguard/internal/card/models"
	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
)

type createContactRequest struct {
	CardID string `json:"card_id"`
	Name   string `json:"name"`
	Number string `json:"number"`
	Group  string `json:"group"`
	Email  string `json:"email"`

	cardID domain.CardID
}

func (r *createContactRequest) Validate() error {
	id, err := domain.ParseCardID(r.CardID)
	if err != nil {
		return err
	}
	r.cardID = id
	r.Number = strings.TrimSpace(r.Number)
	r.Name = strings.TrimSpace(r.Name)
	if r.Number == "" {
		return dErrors.New(dErrors.CodeValidation, "number is required")
	}
	return nil
}

type updateContactRequest struct {
	models.ContactPatch
}

func (r *updateContactRequest) Validate() error {
	if r.Empty() {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	if r.Number != nil && strings.TrimSpace(*r.Number) == "" {
		return dErrors.New(dErrors.CodeValidation, "number must not be blank")
	}
	return nil
}

type createSMSRequest struct {
	CardID    string `json:"card_id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
	Status    string `json:"status"`

	cardID domain.CardID
	status models.SMSStatus
}

func (r *createSMSRequest) Validate() error {
	id, err := domain.ParseCardID(r.CardID)
	if err != nil {
		return err
	}
	r.cardID = id
	r.Recipient = strings.TrimSpace(r.Recipient)
	r.Message = strings.TrimSpace(r.Message)
	if r.Recipient == "" {
		return dErrors.New(dErrors.CodeValidation, "recipient is required")
	}
	if r.Message == "" {
		return dErrors.New(dErrors.CodeValidation, "message is required")
	}
	r.status = models.SMSStatus(r.Status)
	if r.Status != "" && !r.status.Valid() {
		return dErrors.New(dErrors.CodeValidation, "status must be unread, read, sent, or draft")
	}
	return nil
}
