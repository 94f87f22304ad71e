package medcrypt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdsykes2512/medcrypt"
)

func TestParseSensitiveField(t *testing.T) {
	field, ok := medcrypt.ParseSensitiveField("nhs_number")
	require.True(t, ok)
	assert.Equal(t, medcrypt.FieldNHSNumber, field)

	_, ok = medcrypt.ParseSensitiveField("ward")
	assert.False(t, ok)

	// Case matters; document keys are snake_case by convention.
	_, ok = medcrypt.ParseSensitiveField("NHS_Number")
	assert.False(t, ok)
}

func TestIsIndexable(t *testing.T) {
	tests := []struct {
		field medcrypt.SensitiveField
		want  bool
	}{
		{field: medcrypt.FieldNHSNumber, want: true},
		{field: medcrypt.FieldMRN, want: true},
		{field: medcrypt.FieldHospitalNumber, want: true},
		{field: medcrypt.FieldLastName, want: true},
		{field: medcrypt.FieldDateOfBirth, want: true},
		{field: medcrypt.FieldPostcode, want: true},
		{field: medcrypt.FieldFirstName, want: false},
		{field: medcrypt.FieldDeceasedDate, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.field.IsIndexable())
		})
	}
}

func TestHashField(t *testing.T) {
	assert.Equal(t, "nhs_number_hash", medcrypt.FieldNHSNumber.HashField())
	assert.Equal(t, "postcode_hash", medcrypt.FieldPostcode.HashField())
}

func TestSensitiveFieldsCoversRegistry(t *testing.T) {
	fields := medcrypt.SensitiveFields()
	assert.Len(t, fields, 8)
	for _, f := range fields {
		assert.True(t, medcrypt.IsSensitiveField(f.String()))
	}
}
