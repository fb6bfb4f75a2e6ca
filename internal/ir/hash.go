package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints. The version suffix allows the algorithm
// to change without colliding with stored values.
const (
	DomainQuery = "searchql/query/v1"
	DomainRules = "searchql/rules/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint identifies a compiled query by its text and bindings.
// The trace comment line is part of the text, so callers that want
// identical queries to share a fingerprint hash the untagged text.
func Fingerprint(query string, bindings IRObject) (string, error) {
	if bindings == nil {
		bindings = IRObject{}
	}
	canonical, err := MarshalCanonical(IRObject{
		"query":    IRString(query),
		"bindings": bindings,
	})
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// RulesFingerprint identifies an ordered rule list. Rule order is significant.
func RulesFingerprint(rules []Rule) (string, error) {
	arr := make(IRArray, len(rules))
	for i, r := range rules {
		values := make(IRArray, r.Len())
		for j := range r.values {
			values[j] = IRString(r.values[j])
		}
		arr[i] = IRObject{
			"field":    IRString(r.field),
			"type":     IRString(r.typ),
			"operator": IRString(r.operator),
			"values":   values,
		}
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("RulesFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRules, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(query string, bindings IRObject) string {
	fp, err := Fingerprint(query, bindings)
	if err != nil {
		panic(err)
	}
	return fp
}
