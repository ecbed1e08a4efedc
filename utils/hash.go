package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const docIDPrefix = "doc_"

// DocumentID derives the content-addressed document identifier for the given
// file bytes. Identical content always yields the same ID regardless of
// filename; this is the sole deduplication mechanism.
func DocumentID(content []byte) string {
	sum := sha256.Sum256(content)
	return docIDPrefix + hex.EncodeToString(sum[:])
}

// ContentHash returns the bare hex digest of a document ID, or the ID
// unchanged if it does not carry the standard prefix.
func ContentHash(docID string) string {
	return strings.TrimPrefix(docID, docIDPrefix)
}
