package esim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchingID_Deterministic(t *testing.T) {
	first := MatchingID("8901260123456789011", "310260123456789", "Work", "TestNet")
	for range 5 {
		assert.Equal(t, first, MatchingID("8901260123456789011", "310260123456789", "Work", "TestNet"))
	}
}

func TestMatchingID_Shape(t *testing.T) {
	id := MatchingID("8901260123456789011", "310260123456789", "Work", "TestNet")

	// 10 digest bytes encode to 16 unpadded base32 characters.
	assert.Len(t, id, 16)
	assert.NotContains(t, id, "=")
	assert.Equal(t, strings.ToUpper(id), id)
}

func TestMatchingID_SensitiveToEveryField(t *testing.T) {
	base := MatchingID("8901260123456789011", "310260123456789", "Work", "TestNet")

	assert.NotEqual(t, base, MatchingID("8944200123456789013", "310260123456789", "Work", "TestNet"))
	assert.NotEqual(t, base, MatchingID("8901260123456789011", "310260000000000", "Work", "TestNet"))
	assert.NotEqual(t, base, MatchingID("8901260123456789011", "310260123456789", "Personal", "TestNet"))
	assert.NotEqual(t, base, MatchingID("8901260123456789011", "310260123456789", "Work", "OtherNet"))
}

func TestMatchingID_FieldBoundaries(t *testing.T) {
	// Field contents must not smear across boundaries.
	a := MatchingID("1", "23", "4", "5")
	b := MatchingID("12", "3", "4", "5")
	assert.NotEqual(t, a, b)
}

func TestActivationCode_Grammar(t *testing.T) {
	code := ActivationCode("rsp.example.com", "ABCDEF1234567890")

	require.Equal(t, "LPA:1$rsp.example.com$ABCDEF1234567890", code)

	parts := strings.Split(code, "$")
	require.Len(t, parts, 3)
	assert.Equal(t, "LPA:1", parts[0])
	assert.Equal(t, "rsp.example.com", parts[1])
	assert.Equal(t, "ABCDEF1234567890", parts[2])
}
