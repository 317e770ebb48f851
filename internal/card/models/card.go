package models

import (
	"strings"
	"time"

	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/gsm"
)

// CardType is the physical form factor reported by the reader.
type CardType string

const (
	CardTypeNano     CardType = "nano"
	CardTypeMicro    CardType = "micro"
	CardTypeStandard CardType = "standard"
)

// Valid reports whether t is a known form factor.
func (t CardType) Valid() bool {
	switch t {
	case CardTypeNano, CardTypeMicro, CardTypeStandard:
		return true
	}
	return false
}

// Card is the aggregate root for one scanned card record.
//
// Invariants:
//   - ICCID is 19-20 digits with a valid trailing Luhn check digit
//   - ICCID is unique among live cards (enforced by the store)
//   - CardType is one of nano/micro/standard
//   - CreatedAt is immutable after construction
//
// Contacts, SMS, analyses, and profiles are owned by the card and removed
// with it (cascade delete, enforced at the service layer inside one
// transaction).
type Card struct {
	ID     domain.CardID `json:"id"`
	ICCID  string        `json:"iccid"`
	IMSI   string        `json:"imsi"`
	MSISDN string        `json:"msisdn,omitempty"`
	MCC    string        `json:"mcc"`
	MNC    string        `json:"mnc"`
	SPN    string        `json:"spn"`
	// ATR is the reader-reported identification string. Informational; the
	// analyzer never derives anything from it.
	ATR      string   `json:"atr,omitempty"`
	CardType CardType `json:"card_type"`

	// AuthAlgorithm and EncryptionType are the observed identifiers the
	// reader reports (COMP128v1..v3, MILENAGE, TUAK / A5-0..A5-4). The
	// analyzer classifies them into strength tiers.
	AuthAlgorithm  string `json:"auth_algorithm,omitempty"`
	EncryptionType string `json:"encryption_type,omitempty"`

	// Ki and OPc are extracted long-term keys. Their mere presence is a
	// risk signal; the clone engine copies them only on request.
	Ki  string `json:"ki,omitempty"`
	OPc string `json:"opc,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewCard constructs a card from reader attributes, validating invariants.
func NewCard(id domain.CardID, attrs CardAttributes, now time.Time) (*Card, error) {
	c := &Card{
		ID:             id,
		ICCID:          strings.TrimSpace(attrs.ICCID),
		IMSI:           strings.TrimSpace(attrs.IMSI),
		MSISDN:         strings.TrimSpace(attrs.MSISDN),
		MCC:            attrs.MCC,
		MNC:            attrs.MNC,
		SPN:            attrs.SPN,
		ATR:            attrs.ATR,
		CardType:       attrs.CardType,
		AuthAlgorithm:  attrs.AuthAlgorithm,
		EncryptionType: attrs.EncryptionType,
		Ki:             attrs.Ki,
		OPc:            attrs.OPc,
		CreatedAt:      now,
	}
	if c.CardType == "" {
		c.CardType = CardTypeNano
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate enforces the card invariants that do not need store access.
func (c *Card) Validate() error {
	if err := gsm.ValidateICCID(c.ICCID); err != nil {
		return err
	}
	if c.IMSI == "" {
		return dErrors.New(dErrors.CodeValidation, "imsi is required")
	}
	if !c.CardType.Valid() {
		return dErrors.New(dErrors.CodeValidation, "card_type must be nano, micro, or standard")
	}
	return nil
}

// HasExtractedKeys reports whether long-term key material was captured for
// this card.
func (c *Card) HasExtractedKeys() bool {
	return c.Ki != "" || c.OPc != ""
}

// CardAttributes is the opaque attribute set a reader produces. The engines
// never talk to hardware; they consume this value.
type CardAttributes struct {
	ICCID          string   `json:"iccid"`
	IMSI           string   `json:"imsi"`
	MSISDN         string   `json:"msisdn,omitempty"`
	MCC            string   `json:"mcc"`
	MNC            string   `json:"mnc"`
	SPN            string   `json:"spn"`
	ATR            string   `json:"atr,omitempty"`
	CardType       CardType `json:"card_type"`
	AuthAlgorithm  string   `json:"auth_algorithm,omitempty"`
	EncryptionType string   `json:"encryption_type,omitempty"`
	Ki             string   `json:"ki,omitempty"`
	OPc            string   `json:"opc,omitempty"`
}
