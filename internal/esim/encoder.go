// Package esim derives eSIM activation material from physical card records.
// Derivation is pure: no randomness, no clock, no I/O.
package esim

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"
)

// matchingIDBytes is how much of the digest feeds the matching ID. Ten bytes
// give 16 base32 characters, the length SM-DP+ servers commonly issue.
const matchingIDBytes = 10

// base32NoPad is the uppercase RFC 4648 alphabet without padding; activation
// codes never carry '=' characters.
var base32NoPad = base32.StdEncoding.WithPadding(base32.NoPadding)

// MatchingID derives the deterministic matching ID for a card/profile pair.
// The canonical input is the four fields joined with '|' so no field
// boundary ambiguity can make two pairs collide.
func MatchingID(iccid, imsi, profileName, carrier string) string {
	canonical := strings.Join([]string{iccid, imsi, profileName, carrier}, "|")
	digest := sha256.Sum256([]byte(canonical))
	return base32NoPad.EncodeToString(digest[:matchingIDBytes])
}

// ActivationCode renders the LPA activation string for a matching ID.
// Format version 1: LPA:1$<smdp-address>$<matching-id>.
func ActivationCode(smdpAddress, matchingID string) string {
	return "LPA:1$" + smdpAddress + "$" + matchingID
}
