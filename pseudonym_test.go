package medcrypt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdsykes2512/medcrypt"
)

func TestPseudonymizeForLogging(t *testing.T) {
	doc := medcrypt.Document{
		"id":              "a3f1",
		"nhs_number":      "9434765919",
		"nhs_number_hash": "abcdef",
		"last_name":       "Smith",
		"email":           "j.smith@example.org",
		"address_line_1":  "1 High Street",
		"ward":            "Ward 7",
		"admitted":        true,
	}

	safe := medcrypt.PseudonymizeForLogging(doc)

	// Identifying values are blanked; keys survive so log shape is stable.
	assert.Equal(t, medcrypt.RedactedMarker, safe["nhs_number"])
	assert.Equal(t, medcrypt.RedactedMarker, safe["nhs_number_hash"])
	assert.Equal(t, medcrypt.RedactedMarker, safe["last_name"])
	assert.Equal(t, medcrypt.RedactedMarker, safe["email"])
	assert.Equal(t, medcrypt.RedactedMarker, safe["address_line_1"])

	// Surrogate keys and operational fields pass through.
	assert.Equal(t, "a3f1", safe["id"])
	assert.Equal(t, "Ward 7", safe["ward"])
	assert.Equal(t, true, safe["admitted"])

	// Input is never mutated.
	assert.Equal(t, "9434765919", doc["nhs_number"])
}

func TestPseudonymizeForLoggingNil(t *testing.T) {
	assert.Nil(t, medcrypt.PseudonymizeForLogging(nil))
}

func TestRegisterRedactionAliases(t *testing.T) {
	medcrypt.RegisterRedactionAliases("trust_pager_id")

	safe := medcrypt.PseudonymizeForLogging(medcrypt.Document{
		"trust_pager_id": "07700",
		"ward":           "Ward 7",
	})
	assert.Equal(t, medcrypt.RedactedMarker, safe["trust_pager_id"])
	assert.Equal(t, "Ward 7", safe["ward"])
}
