package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for digests. The version suffix allows algorithm migration.
const (
	DomainDefinition = "bandwalk/definition/v1"
	DomainDataset    = "bandwalk/dataset/v1"
	DomainTrace      = "bandwalk/trace/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the domain-separated digest of v's canonical encoding.
func Digest(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// DatasetHash digests an ordered list of rows.
func DatasetHash(rows []IRObject) (string, error) {
	arr := make(IRArray, len(rows))
	for i, r := range rows {
		arr[i] = r
	}
	return Digest(DomainDataset, arr)
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDigest(domain string, v any) string {
	d, err := Digest(domain, v)
	if err != nil {
		panic(err)
	}
	return d
}
