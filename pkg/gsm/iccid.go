// Package gsm holds the pure numbering-plan helpers: Luhn checksums, ICCID
// shape validation, and IMSI field extraction. No I/O, no state.
package gsm

import (
	"fmt"
	"strings"

	dErrors "simguard/pkg/domain-errors"
)

const (
	// ICCIDMinDigits and ICCIDMaxDigits bound the total length including the
	// trailing Luhn check digit (ITU-T E.118).
	ICCIDMinDigits = 19
	ICCIDMaxDigits = 20

	// IssuerPrefixLen is the number of leading ICCID digits preserved when
	// deriving a sibling ICCID: the "89" telecom major industry identifier,
	// the country code, and the issuer identifier.
	IssuerPrefixLen = 7
)

// LuhnCheckDigit computes the check digit that makes payload+digit pass the
// Luhn check. payload must be numeric.
func LuhnCheckDigit(payload string) (byte, error) {
	sum, err := luhnSum(payload, true)
	if err != nil {
		return 0, err
	}
	return byte('0' + (10-sum%10)%10), nil
}

// LuhnValid reports whether the numeric string s, including its final check
// digit, passes the Luhn check.
func LuhnValid(s string) bool {
	if len(s) < 2 {
		return false
	}
	sum, err := luhnSum(s[:len(s)-1], true)
	if err != nil {
		return false
	}
	return (sum+int(s[len(s)-1]-'0'))%10 == 0 && isDigits(s)
}

// luhnSum doubles every second digit from the right. doubleFromRight is true
// when the payload excludes the check digit position.
func luhnSum(payload string, doubleFromRight bool) (int, error) {
	if !isDigits(payload) {
		return 0, fmt.Errorf("luhn: non-numeric payload %q", payload)
	}
	sum := 0
	double := doubleFromRight
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidateICCID checks length, digit content, and the trailing Luhn digit.
func ValidateICCID(iccid string) error {
	iccid = strings.TrimSpace(iccid)
	if len(iccid) < ICCIDMinDigits || len(iccid) > ICCIDMaxDigits {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("iccid must be %d-%d digits", ICCIDMinDigits, ICCIDMaxDigits))
	}
	if !isDigits(iccid) {
		return dErrors.New(dErrors.CodeValidation, "iccid must be numeric")
	}
	if !LuhnValid(iccid) {
		return dErrors.New(dErrors.CodeValidation, "iccid check digit is invalid")
	}
	return nil
}

// IssuerPrefix returns the issuer-identifier prefix of an ICCID.
func IssuerPrefix(iccid string) string {
	if len(iccid) < IssuerPrefixLen {
		return iccid
	}
	return iccid[:IssuerPrefixLen]
}

// MCCFromIMSI extracts the three-digit mobile country code.
func MCCFromIMSI(imsi string) string {
	if len(imsi) < 3 {
		return ""
	}
	return imsi[:3]
}

// MNCFromIMSI extracts the mobile network code. Two-digit MNCs are the
// common case outside North America; this mirrors the reader's decoding.
func MNCFromIMSI(imsi string) string {
	if len(imsi) < 5 {
		return ""
	}
	return imsi[3:5]
}
