package medcrypt

import (
	"fmt"

	"github.com/hengadev/errsx"
)

// Document is one stored clinical record: an arbitrarily nested map.
// Sensitive fields may appear at the top level or nested inside sub-objects.
type Document map[string]any

// EncryptDocument returns a copy of doc with every top-level sensitive field
// encrypted and, for indexable fields, a sibling "<field>_hash" search hash
// added. Non-sensitive fields are never transformed.
//
// The pass is deliberately shallow: nested objects are not descended into.
// DecryptDocument, by contrast, recurses and decrypts tagged values at any
// depth. This asymmetry is a compatibility contract with data written by the
// original system and must not be "fixed" here - see DecryptDocument.
//
// Already-tagged values are left as-is (idempotence); their hash sibling is
// assumed to have been written when they were first encrypted.
func (k *Keyring) EncryptDocument(doc Document) (Document, error) {
	if doc == nil {
		return nil, nil
	}

	var errs errsx.Map
	out := make(Document, len(doc))
	for key, value := range doc {
		out[key] = value

		field, ok := ParseSensitiveField(key)
		if !ok {
			continue
		}

		if field.IsIndexable() && value != nil && !IsEncrypted(value) {
			if plaintext, err := coerceString(value); err == nil && plaintext != "" {
				out[field.HashField()] = k.SearchHash(field, plaintext)
			}
		}

		encrypted, err := k.EncryptField(key, value)
		if err != nil {
			errs.Set(fmt.Sprintf("encrypt '%s'", key), err)
			continue
		}
		out[key] = encrypted
	}
	if err := errs.AsError(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecryptDocument returns a copy of doc with every tagged ciphertext value
// decrypted, at any nesting depth. Detection is by value shape (the
// EncryptedPrefix), not by key name, so the pass is safe on documents with
// zero, partial, or full encryption coverage.
//
// Any single field failing authentication aborts the whole document: a read
// either yields fully recovered plaintext or an error, never a partially
// decrypted record.
func (k *Keyring) DecryptDocument(doc Document) (Document, error) {
	if doc == nil {
		return nil, nil
	}
	out, err := k.decryptValue("", doc)
	if err != nil {
		return nil, err
	}
	return out.(Document), nil
}

func (k *Keyring) decryptValue(key string, value any) (any, error) {
	switch v := value.(type) {
	case Document:
		return k.decryptMap(v)
	case map[string]any:
		m, err := k.decryptMap(v)
		if err != nil {
			return nil, err
		}
		return map[string]any(m), nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			decrypted, err := k.decryptValue(key, elem)
			if err != nil {
				return nil, err
			}
			out[i] = decrypted
		}
		return out, nil
	case string:
		if !IsEncrypted(v) {
			return v, nil
		}
		plaintext, err := k.open(v)
		if err != nil {
			return nil, NewDecryptionError(key, err)
		}
		return plaintext, nil
	default:
		return value, nil
	}
}

func (k *Keyring) decryptMap(m map[string]any) (Document, error) {
	out := make(Document, len(m))
	for key, value := range m {
		decrypted, err := k.decryptValue(key, value)
		if err != nil {
			return nil, err
		}
		out[key] = decrypted
	}
	return out, nil
}
