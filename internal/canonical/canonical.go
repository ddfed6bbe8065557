// Package canonical translates external health-metric vocabularies
// (device vendor names, sleep/activity labels, LOINC codes) into the
// small canonical key space the scoring subsystem consumes.
//
// Lookups are exact-match: keys are stored verbatim and no trimming or
// case folding is applied. Callers that ingest untrusted vendor payloads
// normalize before resolving.
package canonical

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Domain is the semantic domain of a metric vocabulary.
type Domain string

const (
	DomainVitals    Domain = "vitals"
	DomainSleep     Domain = "sleep"
	DomainActivity  Domain = "activity"
	DomainBiomarker Domain = "biomarker"
)

// Domains lists every valid domain.
var Domains = []Domain{DomainVitals, DomainSleep, DomainActivity, DomainBiomarker}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	switch d {
	case DomainVitals, DomainSleep, DomainActivity, DomainBiomarker:
		return true
	}
	return false
}

// Key is a canonical internal metric identifier.
type Key string

// Resolver translates an external identifier plus its domain into a
// canonical key. The second return is false when no mapping exists; an
// unmapped metric is an expected outcome, not an error, and callers
// decide whether to skip, log, or escalate it.
type Resolver interface {
	Resolve(domain Domain, external string) (Key, bool)
}

//go:embed mappings.yaml
var mappingsYAML []byte

// StaticResolver is the in-process implementation: an immutable map
// built once from the embedded, versioned mapping source. It is fully
// populated before it is returned and therefore safe for unsynchronized
// concurrent reads.
type StaticResolver struct {
	byDomain map[Domain]map[string]Key
}

// NewStaticResolver builds a resolver from the embedded mapping source.
func NewStaticResolver() (*StaticResolver, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(mappingsYAML, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse embedded mappings: %w", err)
	}

	byDomain := make(map[Domain]map[string]Key, len(raw))
	for domainName, entries := range raw {
		domain := Domain(domainName)
		if !domain.Valid() {
			return nil, fmt.Errorf("unknown mapping domain %q", domainName)
		}
		m := make(map[string]Key, len(entries))
		for external, key := range entries {
			if key == "" {
				return nil, fmt.Errorf("empty canonical key for %s/%s", domainName, external)
			}
			m[external] = Key(key)
		}
		byDomain[domain] = m
	}

	return &StaticResolver{byDomain: byDomain}, nil
}

// MustStaticResolver builds the embedded resolver and panics on failure.
// The embedded source is versioned with the binary; a parse failure is a
// build defect, not a runtime condition.
func MustStaticResolver() *StaticResolver {
	r, err := NewStaticResolver()
	if err != nil {
		panic("canonical: " + err.Error())
	}
	return r
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(domain Domain, external string) (Key, bool) {
	key, ok := r.byDomain[domain][external]
	return key, ok
}

// Len returns the number of mappings in a domain.
func (r *StaticResolver) Len(domain Domain) int {
	return len(r.byDomain[domain])
}

// DBResolver resolves against the metric_mappings table seeded by the
// migration chain. Deployments whose registry outgrows the embedded
// source swap this in without changing any caller.
type DBResolver struct {
	db *sql.DB
}

// NewDBResolver creates a resolver backed by the metric_mappings table.
func NewDBResolver(db *sql.DB) *DBResolver {
	return &DBResolver{db: db}
}

// Resolve implements Resolver. Lookup failures of any kind, including
// database errors, surface as NotFound; the registry never raises for
// unknown input.
func (r *DBResolver) Resolve(domain Domain, external string) (Key, bool) {
	var key string
	err := r.db.QueryRowContext(context.Background(), `
		SELECT canonical_key FROM metric_mappings
		WHERE domain = ? AND external_key = ?
	`, string(domain), external).Scan(&key)
	if err != nil {
		return "", false
	}
	return Key(key), true
}
