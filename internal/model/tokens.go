package model

import "strings"

// separators are the characters that delimit name fragments across naming
// conventions (snake_case, dotted paths, kebab-case, file paths, id prefixes).
var separators = []string{"_", ".", "-", "/", ":"}

// Tokenize splits a name into lower-cased fragments on the separator set,
// discarding empty fragments. Pure function: the same name always produces
// the same token list.
func Tokenize(name string) []string {
	normalized := strings.ToLower(name)
	for _, sep := range separators {
		normalized = strings.ReplaceAll(normalized, sep, " ")
	}

	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, f)
	}
	return tokens
}

// Normalize lower-cases a name and strips all separators, so that
// PAYMENT_DB_HOST and payment.db.host compare equal.
func Normalize(name string) string {
	result := strings.ToLower(name)
	for _, sep := range separators {
		result = strings.ReplaceAll(result, sep, "")
	}
	return result
}
