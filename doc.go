// Package medcrypt provides field-level encryption and blind indexing for
// clinical document stores.
//
// Direct and quasi identifiers (NHS number, MRN, names, date of birth,
// postcode) are encrypted at rest with AES-256-GCM while remaining
// searchable by exact match through deterministic keyed search hashes
// stored beside the ciphertext.
//
// # Key Features
//
//   - AES-256-GCM field encryption with self-describing "ENC:" tokens
//   - Keyed HMAC-SHA256 blind indexes over normalized plaintext
//   - Shallow document encryption and recursive document decryption
//   - Idempotent batch migration of existing collections
//   - Log-safe pseudonymization of documents
//   - File, HashiCorp Vault, and AWS Secrets Manager key material sources
//
// # Quick Start
//
// Create a keyring from file-backed key material and encrypt a document:
//
//	source := medcrypt.NewFileSource("/var/lib/medcrypt/master.key", "/var/lib/medcrypt/master.salt", logger)
//	keyring, err := medcrypt.NewKeyring(ctx, source, medcrypt.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc := medcrypt.Document{"nhs_number": "1234567890", "ward": "7B"}
//	encrypted, err := keyring.EncryptDocument(doc)
//	// encrypted["nhs_number"] == "ENC:..."
//	// encrypted["nhs_number_hash"] == deterministic search hash
//
// Look up a record by identifier without decrypting the collection:
//
//	filter := keyring.SearchQuery(medcrypt.FieldNHSNumber, "123 456 7890")
//	docs, err := st.Find(ctx, "patients", filter, 1, 0)
//
// # Key Material
//
// A 32-byte master secret and a 16-byte salt are loaded once at startup from
// a SecretSource. The working cipher key is stretched from them with
// PBKDF2-HMAC-SHA256 (100,000 iterations); a separate blind-index key is
// derived with HKDF-SHA256 so search hashes and ciphertext never share key
// material. The file source generates both files on first run with 0600
// permissions and logs a one-time warning to back them up offline.
//
// # Fail-Closed Behavior
//
// Tampered or corrupted ciphertext always surfaces ErrDecryptionFailed;
// a single undecryptable field fails the whole containing document. Missing
// or unreadable key material is a fatal startup error - there is no
// plaintext or ephemeral-key fallback.
package medcrypt
