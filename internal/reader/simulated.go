package reader

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"simguard/internal/card/models"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/gsm"
)

// profile is a canned carrier template a simulated reader draws from.
type profile struct {
	issuerPrefix   string // first 7 ICCID digits
	mcc, mnc       string
	spn            string
	atr            string
	authAlgorithm  string
	encryptionType string
	withKeys       bool
}

var simulatedProfiles = []profile{
	{
		issuerPrefix:   "8901410",
		mcc:            "310",
		mnc:            "41",
		spn:            "TestNet Mobile",
		atr:            "3B9F96801FC78031E073FE211B674A4C753034054BA9",
		authAlgorithm:  "MILENAGE",
		encryptionType: "A5/3",
	},
	{
		issuerPrefix:   "8901260",
		mcc:            "310",
		mnc:            "26",
		spn:            "LegacyCell",
		atr:            "3B1F11806759AA55AA55AA55AA55AA55",
		authAlgorithm:  "COMP128v1",
		encryptionType: "A5/1",
		withKeys:       true,
	},
	{
		issuerPrefix:   "8944200",
		mcc:            "234",
		mnc:            "20",
		spn:            "EuroSim",
		atr:            "3B9E96801FC78031E073FE211B66D00217B6",
		authAlgorithm:  "COMP128v3",
		encryptionType: "A5/3",
	},
}

// Simulated is a Source backed by canned carrier profiles. Every Read
// fabricates a fresh ICCID and IMSI so repeated reads produce distinct
// cards, the way swapping physical cards would.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated source. A nil rng uses a global seed.
func NewSimulated(rng *rand.Rand) *Simulated {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulated{rng: rng}
}

func (s *Simulated) List(_ context.Context) ([]Reader, error) {
	return []Reader{
		{ID: "sim-0", Name: "Simulated PC/SC Reader 0", Connected: true, Simulated: true},
		{ID: "sim-1", Name: "Simulated PC/SC Reader 1", Connected: true, Simulated: true},
	}, nil
}

func (s *Simulated) Read(_ context.Context, readerID string) (models.CardAttributes, error) {
	if readerID != "sim-0" && readerID != "sim-1" {
		return models.CardAttributes{}, dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("reader %q not found", readerID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := simulatedProfiles[s.rng.IntN(len(simulatedProfiles))]

	iccid, err := s.fabricateICCID(p.issuerPrefix)
	if err != nil {
		return models.CardAttributes{}, err
	}

	attrs := models.CardAttributes{
		ICCID:          iccid,
		IMSI:           p.mcc + p.mnc + s.digits(10),
		MSISDN:         "+1" + s.digits(10),
		MCC:            p.mcc,
		MNC:            p.mnc,
		SPN:            p.spn,
		ATR:            p.atr,
		CardType:       models.CardTypeNano,
		AuthAlgorithm:  p.authAlgorithm,
		EncryptionType: p.encryptionType,
	}
	if p.withKeys {
		attrs.Ki = s.hex(32)
		attrs.OPc = s.hex(32)
	}
	return attrs, nil
}

// fabricateICCID builds a 19-digit ICCID: issuer prefix, random serial,
// recomputed Luhn check digit.
func (s *Simulated) fabricateICCID(issuerPrefix string) (string, error) {
	payload := issuerPrefix + s.digits(gsm.ICCIDMinDigits - len(issuerPrefix) - 1)
	check, err := gsm.LuhnCheckDigit(payload)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "fabricate iccid")
	}
	return payload + string(check), nil
}

func (s *Simulated) digits(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte('0' + s.rng.IntN(10))
	}
	return string(out)
}

func (s *Simulated) hex(n int) string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, n)
	for i := range out {
		out[i] = hexDigits[s.rng.IntN(16)]
	}
	return string(out)
}
