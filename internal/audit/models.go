package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	CardID    string    `json:"card_id,omitempty"`
	Details   string    `json:"details,omitempty"`
	Status    string    `json:"status"`
}

// Actions recorded by the engines. One constant per user-visible operation.
const (
	ActionCardRead      = "CARD_READ"
	ActionCardDelete    = "CARD_DELETE"
	ActionCardClone     = "CARD_CLONE"
	ActionContactCreate = "CONTACT_CREATE"
	ActionContactUpdate = "CONTACT_UPDATE"
	ActionContactDelete = "CONTACT_DELETE"
	ActionSMSCreate     = "SMS_CREATE"
	ActionSMSDelete     = "SMS_DELETE"
	ActionAnalysis      = "SECURITY_ANALYSIS"
	ActionEsimConvert   = "ESIM_CONVERT"
	ActionDataExport    = "DATA_EXPORT"
	ActionDataImport    = "DATA_IMPORT"
)

// Event statuses.
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
)
