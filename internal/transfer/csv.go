package transfer

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// renderCSV writes the export as three header-separated sections so the file
// stays readable in a plain text editor.
func renderCSV(doc *Document) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("=== CARD INFO ===\n")
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{
		"id", "iccid", "imsi", "msisdn", "mcc", "mnc", "spn", "atr",
		"card_type", "auth_algorithm", "encryption_type", "ki", "opc",
		"created_at",
	}); err != nil {
		return nil, err
	}
	card := doc.Card
	if err := w.Write([]string{
		card.ID.String(), card.ICCID, card.IMSI, card.MSISDN, card.MCC,
		card.MNC, card.SPN, card.ATR, string(card.CardType),
		card.AuthAlgorithm, card.EncryptionType, card.Ki, card.OPc,
		card.CreatedAt.Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	w.Flush()

	buf.WriteString("\n=== CONTACTS ===\n")
	if len(doc.Contacts) > 0 {
		w = csv.NewWriter(&buf)
		if err := w.Write([]string{"id", "index", "name", "number", "group", "email"}); err != nil {
			return nil, err
		}
		for _, c := range doc.Contacts {
			if err := w.Write([]string{
				c.ID.String(), strconv.Itoa(c.Index), c.Name, c.Number,
				c.Group, c.Email,
			}); err != nil {
				return nil, err
			}
		}
		w.Flush()
	}

	buf.WriteString("\n=== SMS ===\n")
	if len(doc.SMS) > 0 {
		w = csv.NewWriter(&buf)
		if err := w.Write([]string{"id", "sender", "recipient", "message", "status", "timestamp"}); err != nil {
			return nil, err
		}
		for _, m := range doc.SMS {
			if err := w.Write([]string{
				m.ID.String(), m.Sender, m.Recipient, m.Message,
				string(m.Status), m.Timestamp.Format(time.RFC3339),
			}); err != nil {
				return nil, err
			}
		}
		w.Flush()
	}

	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
