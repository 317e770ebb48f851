// Package analyzer assesses the security posture of a scanned card. The rule
// chain is a pure function of card attributes so identical cards always get
// identical findings.
package analyzer

import (
	"strings"

	"simguard/internal/analyzer/models"
	cardmodels "simguard/internal/card/models"
	strutil "simguard/pkg/platform/strings"
)

// Classification is the outcome of the rule chain.
type Classification struct {
	RiskLevel       models.RiskLevel
	Vulnerabilities []string
	Recommendations []string
}

type finding struct {
	floor          models.RiskLevel
	vulnerability  string
	recommendation string
}

// Evaluate runs every rule against the card and folds the findings into one
// classification. Rules only add severity; nothing lowers it.
func Evaluate(card *cardmodels.Card) Classification {
	findings := []finding{
		classifyAuth(card.AuthAlgorithm),
		classifyEncryption(card.EncryptionType),
	}

	c := Classification{
		RiskLevel:       models.RiskLow,
		Vulnerabilities: []string{},
		Recommendations: []string{},
	}
	for _, f := range findings {
		c.RiskLevel = c.RiskLevel.Max(f.floor)
		if f.vulnerability != "" {
			c.Vulnerabilities = append(c.Vulnerabilities, f.vulnerability)
			c.Recommendations = append(c.Recommendations, f.recommendation)
		}
	}

	if card.HasExtractedKeys() {
		c.RiskLevel = c.RiskLevel.Raise()
		c.Vulnerabilities = append(c.Vulnerabilities,
			"long-term key material (Ki/OPc) has been extracted from this card")
		c.Recommendations = append(c.Recommendations,
			"treat the subscription as compromised and reissue the card")
	}

	// Auth and encryption rules can converge on the same advice for badly
	// configured cards.
	c.Vulnerabilities = strutil.DedupeAndTrim(c.Vulnerabilities)
	c.Recommendations = strutil.DedupeAndTrim(c.Recommendations)

	return c
}

func classifyAuth(algorithm string) finding {
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "MILENAGE", "TUAK":
		return finding{floor: models.RiskLow}
	case "COMP128V2", "COMP128V3":
		return finding{
			floor:          models.RiskHigh,
			vulnerability:  "authentication uses " + algorithm + ", which leaks Ki bits under partitioning attacks",
			recommendation: "migrate subscribers to MILENAGE or TUAK authentication",
		}
	default:
		// COMP128v1 and anything unidentified get the legacy-weak floor. An
		// algorithm we cannot name must be assumed broken.
		return finding{
			floor:          models.RiskCritical,
			vulnerability:  "authentication algorithm is COMP128v1-class or unidentified; Ki recovery over the air is practical",
			recommendation: "retire the card and issue a MILENAGE or TUAK replacement",
		}
	}
}

func classifyEncryption(encryption string) finding {
	switch normalizeA5(encryption) {
	case "A5/3", "A5/4":
		return finding{floor: models.RiskLow}
	case "A5/1", "A5/2":
		return finding{
			floor:          models.RiskHigh,
			vulnerability:  "air interface cipher " + encryption + " is breakable in real time with commodity hardware",
			recommendation: "require A5/3 or A5/4 ciphering on the network side",
		}
	case "A5/0":
		return finding{
			floor:          models.RiskCritical,
			vulnerability:  "air interface traffic is not encrypted (A5/0)",
			recommendation: "disable the A5/0 fallback; unencrypted service exposes all traffic",
		}
	default:
		// Unidentified cipher: cannot be verified, treated like the breakable
		// family rather than like no cipher at all.
		return finding{
			floor:          models.RiskHigh,
			vulnerability:  "air interface cipher could not be identified",
			recommendation: "verify the card and network negotiate A5/3 or A5/4",
		}
	}
}

// normalizeA5 accepts A5/1, A5-1, and a5_1 spellings.
func normalizeA5(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "/")
	s = strings.ReplaceAll(s, "_", "/")
	return s
}
