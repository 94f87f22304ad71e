package medcrypt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SearchHash computes the deterministic keyed digest used for equality
// search over a sensitive field: HMAC-SHA256 of the normalized plaintext
// (whitespace stripped, lowercased) under the blind-index key, hex encoded.
//
// Equal normalized plaintexts always yield equal hashes, so the digest can
// be matched against the stored "<field>_hash" sibling without decrypting
// anything. The index key is derived separately from the cipher key, so a
// hash never leaks ciphertext key material and resists offline dictionary
// correlation by anyone who lacks the key.
//
// Only exact normalized equality is supported: no partial, prefix, or fuzzy
// matching over encrypted data.
func (k *Keyring) SearchHash(field SensitiveField, value string) string {
	mac := hmac.New(sha256.New, k.indexKey)
	mac.Write([]byte(NormalizeForIndex(value)))
	return hex.EncodeToString(mac.Sum(nil))
}

// SearchQuery returns an equality predicate for looking up documents by a
// sensitive field, e.g. "find patient by NHS number":
//
//	{"nhs_number_hash": "<digest>"}
//
// The raw value is normalized before hashing, so "123 456 7890" and
// "1234567890" produce the same predicate. The caller issues the query
// against the document store directly.
func (k *Keyring) SearchQuery(field SensitiveField, rawValue string) map[string]any {
	return map[string]any{
		field.HashField(): k.SearchHash(field, rawValue),
	}
}
