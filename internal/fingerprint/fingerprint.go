// Package fingerprint derives stable content keys from source locators.
//
// A [Fingerprint] is the SHA-256 digest of the locator string, hex encoded.
// It is the sole key used for conversion jobs and stored artifacts, which
// keeps raw user input out of filenames and map keys.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is a fixed-width, filename-safe identifier for a source locator.
type Fingerprint string

// New computes the fingerprint for a locator.
// Pure and total: any string input is accepted, identical inputs always
// produce identical fingerprints.
func New(locator string) Fingerprint {
	sum := sha256.Sum256([]byte(locator))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// String returns the hex representation.
func (f Fingerprint) String() string {
	return string(f)
}

// Filename returns the artifact filename for this fingerprint with the given
// extension, e.g. "<digest>.mp3". The extension must not include the dot.
func (f Fingerprint) Filename(ext string) string {
	return string(f) + "." + ext
}
