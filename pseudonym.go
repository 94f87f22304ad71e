package medcrypt

// PseudonymizeForLogging returns a shallow copy of doc safe to hand to a
// logging sink: every sensitive field and every general PII alias (name,
// address, phone, email, ...) is replaced with the fixed RedactedMarker.
// Surrogate keys such as internal IDs are left intact so log lines stay
// correlatable without exposing protected data.
//
// All code in this package that logs a document routes it through here
// first; collaborators are expected to do the same.
func PseudonymizeForLogging(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for key, value := range doc {
		if redactedKeys[key] {
			out[key] = RedactedMarker
			continue
		}
		out[key] = value
	}
	return out
}

// redactedKeys is the union of the sensitive field registry, the hash
// siblings, and the general PII aliases.
var redactedKeys = buildRedactedKeys()

func buildRedactedKeys() map[string]bool {
	keys := make(map[string]bool, 2*len(sensitiveFields)+len(redactionAliases))
	for field := range sensitiveFields {
		keys[string(field)] = true
		keys[field.HashField()] = true
	}
	for _, alias := range redactionAliases {
		keys[alias] = true
	}
	return keys
}
