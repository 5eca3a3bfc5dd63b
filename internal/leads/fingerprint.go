// Package leads discovers event pages for a campaign, finds a contact address
// on each page and records new leads in the contact store.
package leads

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the stable record id for a page discovered by a
// campaign. The same URL found by two campaigns yields two records.
func Fingerprint(url, campaign string) string {
	sum := sha256.Sum256([]byte(url + "|" + campaign))
	return hex.EncodeToString(sum[:])
}
