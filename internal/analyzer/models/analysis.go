package models

import (
	"time"

	"simguard/pkg/domain"
)

// RiskLevel is the overall severity of an analysis.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// rank orders risk levels for floor/raise arithmetic.
var rank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the numeric ordering of a risk level.
func (l RiskLevel) Rank() int { return rank[l] }

// Max returns the higher of two risk levels.
func (l RiskLevel) Max(other RiskLevel) RiskLevel {
	if other.Rank() > l.Rank() {
		return other
	}
	return l
}

// Raise bumps the level one step, capped at critical.
func (l RiskLevel) Raise() RiskLevel {
	switch l {
	case RiskLow:
		return RiskMedium
	case RiskMedium:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Analysis is one point-in-time security assessment of a card. History is
// append-only; repeated runs add records rather than overwrite.
type Analysis struct {
	ID             domain.AnalysisID `json:"id"`
	CardID         domain.CardID     `json:"card_id"`
	AuthAlgorithm  string            `json:"auth_algorithm"`
	EncryptionType string            `json:"encryption_type"`
	RiskLevel      RiskLevel         `json:"risk_level"`
	// Vulnerabilities and Recommendations are parallel: one recommendation
	// per finding, in finding order. Both empty exactly when RiskLevel is
	// low.
	Vulnerabilities []string  `json:"vulnerabilities"`
	Recommendations []string  `json:"recommendations"`
	Timestamp       time.Time `json:"timestamp"`
}
