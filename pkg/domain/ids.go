// Package domain holds the typed identifiers shared across services.
//
// Every entity ID is a distinct uuid-backed type so a ContactID can never be
// passed where a CardID is expected. IDs are generated server-side with
// uuid.New(); parse functions guard trust boundaries (URL params, request
// bodies) and reject empty, malformed, and nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "simguard/pkg/domain-errors"
)

type (
	// CardID identifies a scanned card record.
	CardID uuid.UUID
	// ContactID identifies a phonebook entry owned by a card.
	ContactID uuid.UUID
	// SMSID identifies a stored message owned by a card.
	SMSID uuid.UUID
	// AnalysisID identifies one security analysis run.
	AnalysisID uuid.UUID
	// ProfileID identifies one encoded activation profile.
	ProfileID uuid.UUID
)

func (id CardID) String() string     { return uuid.UUID(id).String() }
func (id ContactID) String() string  { return uuid.UUID(id).String() }
func (id SMSID) String() string      { return uuid.UUID(id).String() }
func (id AnalysisID) String() string { return uuid.UUID(id).String() }
func (id ProfileID) String() string  { return uuid.UUID(id).String() }

func (id CardID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ContactID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id SMSID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ProfileID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// NewCardID generates a fresh card identifier.
func NewCardID() CardID { return CardID(uuid.New()) }

// NewContactID generates a fresh contact identifier.
func NewContactID() ContactID { return ContactID(uuid.New()) }

// NewSMSID generates a fresh message identifier.
func NewSMSID() SMSID { return SMSID(uuid.New()) }

// NewAnalysisID generates a fresh analysis identifier.
func NewAnalysisID() AnalysisID { return AnalysisID(uuid.New()) }

// NewProfileID generates a fresh profile identifier.
func NewProfileID() ProfileID { return ProfileID(uuid.New()) }

func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" is required")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" is not a valid id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" must not be the nil id")
	}
	return u, nil
}

// ParseCardID validates and parses a card ID from its string form.
func ParseCardID(raw string) (CardID, error) {
	u, err := parseUUID(raw, "card_id")
	return CardID(u), err
}

// ParseContactID validates and parses a contact ID from its string form.
func ParseContactID(raw string) (ContactID, error) {
	u, err := parseUUID(raw, "contact_id")
	return ContactID(u), err
}

// ParseSMSID validates and parses an SMS ID from its string form.
func ParseSMSID(raw string) (SMSID, error) {
	u, err := parseUUID(raw, "sms_id")
	return SMSID(u), err
}

// ParseProfileID validates and parses a profile ID from its string form.
func ParseProfileID(raw string) (ProfileID, error) {
	u, err := parseUUID(raw, "profile_id")
	return ProfileID(u), err
}
