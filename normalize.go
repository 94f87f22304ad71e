package medcrypt

import (
	"strings"
	"unicode"
)

// NormalizeForIndex canonicalizes a plaintext value before its search hash
// is computed: every whitespace character is removed and the result is
// lowercased. "123 456 7890" and "1234567890" therefore hash identically,
// as do "SW1A 1AA" and "sw1a1aa".
//
// The same normalization must be applied on both write and search; mixing
// rules breaks lookups, which is why the Migrator exposes RehashField for
// retrofitting stored hashes after a rule change.
func NormalizeForIndex(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
