package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidNationalID(t *testing.T) {
	valid := []string{"12345678901", "00000000000", "99999999999"}
	for _, id := range valid {
		assert.True(t, ValidNationalID(id), id)
	}

	invalid := []string{"", "1234567890", "123456789012", "1234567890a", "12345 78901", "１２３４５６７８９０１", "-1234567890"}
	for _, id := range invalid {
		assert.False(t, ValidNationalID(id), id)
	}
}

func TestValidNationalIDEveryLength(t *testing.T) {
	for n := 0; n <= 20; n++ {
		id := strings.Repeat("7", n)
		assert.Equal(t, n == NationalIDLength, ValidNationalID(id), "length %d", n)
	}
}

func TestValidClock(t *testing.T) {
	assert.True(t, ValidClock("00:00"))
	assert.True(t, ValidClock("23:59"))
	assert.False(t, ValidClock("24:00"))
	assert.False(t, ValidClock("9:30"))
	assert.False(t, ValidClock("09:60"))
	assert.False(t, ValidClock("09-30"))
}

type samplePayload struct {
	NationalID string `json:"national_id" validate:"required,tckn"`
	Start      string `json:"start" validate:"required,clock"`
	Name       string `json:"name" validate:"required"`
}

func TestValidatorMessagesUseJSONNames(t *testing.T) {
	v := New()
	err := v.Struct(samplePayload{NationalID: "123", Start: "25:00"})
	require.Error(t, err)

	msg := v.Message(err)
	assert.Contains(t, msg, "national_id 11 haneli")
	assert.Contains(t, msg, "start SS:DD")
	assert.Contains(t, msg, "name")
}

func TestValidatorPasses(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(samplePayload{NationalID: "12345678901", Start: "18:30", Name: "Ali"}))
}

func TestMessagePassesThroughOtherErrors(t *testing.T) {
	assert.Equal(t, "boom", New().Message(errors.New("boom")))
}
