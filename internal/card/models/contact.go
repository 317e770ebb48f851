package models

import (
	"strings"

	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
)

// Contact is a phonebook slot owned by a card.
//
// Invariants:
//   - Number is non-empty
//   - Index is >= 1 and unique per card (store-enforced); the service
//     assigns indexes densely starting at 1
type Contact struct {
	ID     domain.ContactID `json:"id"`
	CardID domain.CardID    `json:"card_id"`
	Index  int              `json:"index"`
	Name   string           `json:"name,omitempty"`
	Number string           `json:"number"`
	Group  string           `json:"group,omitempty"`
	Email  string           `json:"email,omitempty"`
}

// Validate enforces contact field invariants.
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Number) == "" {
		return dErrors.New(dErrors.CodeValidation, "contact number is required")
	}
	if c.Index < 1 {
		return dErrors.New(dErrors.CodeValidation, "contact index must be >= 1")
	}
	return nil
}

// ContactPatch carries field-level edits. Nil means leave unchanged.
type ContactPatch struct {
	Name   *string `json:"name,omitempty"`
	Number *string `json:"number,omitempty"`
	Group  *string `json:"group,omitempty"`
	Email  *string `json:"email,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p *ContactPatch) Empty() bool {
	return p.Name == nil && p.Number == nil && p.Group == nil && p.Email == nil
}

// Apply merges the patch into a contact.
func (p *ContactPatch) Apply(c *Contact) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Number != nil {
		c.Number = strings.TrimSpace(*p.Number)
	}
	if p.Group != nil {
		c.Group = strings.TrimSpace(*p.Group)
	}
	if p.Email != nil {
		c.Email = strings.TrimSpace(*p.Email)
	}
}
