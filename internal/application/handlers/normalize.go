package handlers

import "strings"

// NormalizeExternalID canonicalizes an entity identifier arriving from an
// external caller before it reaches the mutation core. Some clients have been
// seen padding identifiers with whitespace; a prefixed identifier scheme has
// been discussed but its grammar is not settled, so for now normalization is
// trimming only.
//
// TODO: strip the scheme prefix here once the external identifier format is
// agreed with the client teams.
func NormalizeExternalID(id string) string {
	return strings.TrimSpace(id)
}
