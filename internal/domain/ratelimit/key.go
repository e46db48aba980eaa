package ratelimit

import "strings"

// KeyPrefix namespaces every counter key in the shared store.
const KeyPrefix = "ratelimit"

// Key addresses one sliding window: a subject calling one endpoint.
type Key struct {
	Identifier Identifier
	Endpoint   string
}

func NewKey(identifier Identifier, endpoint string) Key {
	return Key{Identifier: identifier, Endpoint: endpoint}
}

// String serializes the key as ratelimit:<scope>:{<id>}:<endpoint>.
func (k Key) String() string {
	return IdentifierPrefix(k.Identifier) + k.Endpoint
}

// IdentifierPrefix is the common prefix of every key owned by identifier.
// The value is braced so that values containing ':' (IPv6 addresses, opaque
// user ids) never prefix another identity's keys.
func IdentifierPrefix(identifier Identifier) string {
	return KeyPrefix + ":" + string(identifier.Scope) + ":" + QuoteSegment(identifier.Value) + ":"
}

// IdentifierPattern is a glob matching all endpoint keys of identifier.
func IdentifierPattern(identifier Identifier) string {
	return EscapeGlob(IdentifierPrefix(identifier)) + "*"
}

var segmentEscaper = strings.NewReplacer(
	`\`, `\\`,
	`{`, `\{`,
	`}`, `\}`,
)

// QuoteSegment wraps s in braces, escaping braces inside it. The first
// unescaped '}' always ends the segment.
func QuoteSegment(s string) string {
	return "{" + segmentEscaper.Replace(s) + "}"
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

// EscapeGlob escapes the metacharacters of Redis SCAN MATCH patterns.
func EscapeGlob(s string) string {
	return globEscaper.Replace(s)
}
