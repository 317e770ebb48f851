package models

import (
	"time"

	"simguard/pkg/domain"
)

// ProfileStatus is the lifecycle state of an encoded profile.
type ProfileStatus string

const (
	StatusPending ProfileStatus = "pending"
	StatusReady   ProfileStatus = "ready"
)

// Profile is a derived eSIM activation record for a physical card. The
// activation code and QR payload are a deterministic function of the card
// identity and the requested profile, so re-encoding the same inputs yields
// the same profile.
type Profile struct {
	ID             domain.ProfileID `json:"id"`
	CardID         domain.CardID    `json:"card_id"`
	ProfileName    string           `json:"profile_name"`
	Carrier        string           `json:"carrier"`
	QRData         string           `json:"qr_data"`
	ActivationCode string           `json:"activation_code"`
	Status         ProfileStatus    `json:"status"`
	Timestamp      time.Time        `json:"timestamp"`
}
