package medcrypt

// SensitiveField identifies a document field that must be encrypted at rest.
// The set is closed: encrypt and decrypt paths dispatch on the same
// constants, so they cannot drift out of sync.
type SensitiveField string

const (
	FieldNHSNumber      SensitiveField = "nhs_number"
	FieldMRN            SensitiveField = "mrn"
	FieldHospitalNumber SensitiveField = "hospital_number"
	FieldFirstName      SensitiveField = "first_name"
	FieldLastName       SensitiveField = "last_name"
	FieldDateOfBirth    SensitiveField = "date_of_birth"
	FieldDeceasedDate   SensitiveField = "deceased_date"
	FieldPostcode       SensitiveField = "postcode"
)

// HashFieldSuffix is appended to a field name to form the sibling document
// field holding its search hash.
const HashFieldSuffix = "_hash"

// fieldSpec describes how one sensitive field is handled.
type fieldSpec struct {
	// indexable fields get a deterministic search hash stored in a
	// "<field>_hash" sibling so collaborators can run equality lookups
	// without decrypting.
	indexable bool
}

// sensitiveFields is the registry of fields requiring encryption.
// first_name and deceased_date carry no blind index: there is no exact-match
// lookup use case for them, and fewer indexes means less correlation surface.
var sensitiveFields = map[SensitiveField]fieldSpec{
	FieldNHSNumber:      {indexable: true},
	FieldMRN:            {indexable: true},
	FieldHospitalNumber: {indexable: true},
	FieldFirstName:      {indexable: false},
	FieldLastName:       {indexable: true},
	FieldDateOfBirth:    {indexable: true},
	FieldDeceasedDate:   {indexable: false},
	FieldPostcode:       {indexable: true},
}

// redactionAliases are general PII key names that the Pseudonymizer blanks
// in addition to the sensitive field set. They cover the loose naming found
// in legacy documents and collaborator payloads.
var redactionAliases = []string{
	"name", "full_name", "forename", "surname", "middle_name",
	"address", "address_line_1", "address_line_2", "street", "city",
	"phone", "telephone", "mobile", "email", "email_address",
	"dob", "birth_date", "next_of_kin", "gp_name",
}

// ParseSensitiveField returns the typed field identifier for name, or false
// if name is not registered.
func ParseSensitiveField(name string) (SensitiveField, bool) {
	f := SensitiveField(name)
	_, ok := sensitiveFields[f]
	return f, ok
}

// IsSensitiveField reports whether name is in the sensitive field registry.
func IsSensitiveField(name string) bool {
	_, ok := ParseSensitiveField(name)
	return ok
}

// IsIndexable reports whether f carries a blind index.
func (f SensitiveField) IsIndexable() bool {
	spec, ok := sensitiveFields[f]
	return ok && spec.indexable
}

// HashField returns the name of the sibling document field holding f's
// search hash, e.g. "nhs_number_hash".
func (f SensitiveField) HashField() string {
	return string(f) + HashFieldSuffix
}

func (f SensitiveField) String() string { return string(f) }

// SensitiveFields returns all registered sensitive fields in a stable order.
func SensitiveFields() []SensitiveField {
	return []SensitiveField{
		FieldNHSNumber,
		FieldMRN,
		FieldHospitalNumber,
		FieldFirstName,
		FieldLastName,
		FieldDateOfBirth,
		FieldDeceasedDate,
		FieldPostcode,
	}
}
