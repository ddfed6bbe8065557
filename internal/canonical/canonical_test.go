package canonical

import (
	"database/sql"
	"sync"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/halcyonhealth/halcyon-api/internal/database/migrations"
)

func TestStaticResolverKnownMappings(t *testing.T) {
	r := MustStaticResolver()

	tests := []struct {
		domain   Domain
		external string
		want     Key
	}{
		{DomainVitals, "Heart Rate", "resting_hr"},
		{DomainVitals, "Resting Heart Rate", "resting_hr"},
		{DomainVitals, "SpO2", "spo2_pct"},
		{DomainSleep, "Deep Sleep", "sleep_deep_min"},
		{DomainActivity, "Step Count", "steps"},
		{DomainBiomarker, "4548-4", "a1c_pct"},
		{DomainBiomarker, "2345-7", "glucose_mgdl"},
	}

	for _, tt := range tests {
		got, ok := r.Resolve(tt.domain, tt.external)
		if !ok {
			t.Errorf("Resolve(%s, %q): not found", tt.domain, tt.external)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%s, %q) = %s, want %s", tt.domain, tt.external, got, tt.want)
		}
	}
}

func TestStaticResolverNotFoundIsAValue(t *testing.T) {
	r := MustStaticResolver()

	if _, ok := r.Resolve(DomainVitals, "Unknown Metric"); ok {
		t.Error("unknown metric resolved")
	}
	if _, ok := r.Resolve(Domain("bogus"), "Heart Rate"); ok {
		t.Error("unknown domain resolved")
	}
}

// Lookup semantics are exact-match: keys are stored verbatim, so a
// trailing space misses. Normalization is the ingest layer's job.
func TestResolveExactMatch(t *testing.T) {
	r := MustStaticResolver()

	if _, ok := r.Resolve(DomainBiomarker, "4548-4"); !ok {
		t.Fatal("exact LOINC code should resolve")
	}
	if _, ok := r.Resolve(DomainBiomarker, "4548-4 "); ok {
		t.Error("trailing whitespace should not resolve")
	}
	if _, ok := r.Resolve(DomainVitals, "heart rate"); ok {
		t.Error("case-folded name should not resolve")
	}
}

func TestStaticResolverDomainsPopulated(t *testing.T) {
	r := MustStaticResolver()
	for _, d := range Domains {
		if r.Len(d) == 0 {
			t.Errorf("domain %s has no mappings", d)
		}
	}
}

// Once the constructor returns, the mapping is complete; concurrent
// readers never observe a partially populated domain.
func TestStaticResolverConcurrentReads(t *testing.T) {
	r := MustStaticResolver()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if key, ok := r.Resolve(DomainVitals, "Heart Rate"); !ok || key != "resting_hr" {
					t.Error("concurrent resolve returned wrong result")
					return
				}
				if _, ok := r.Resolve(DomainBiomarker, "4548-4"); !ok {
					t.Error("concurrent biomarker resolve failed")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func openMigratedDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestDBResolverAgainstSeededTable(t *testing.T) {
	db := openMigratedDB(t)
	r := NewDBResolver(db)

	key, ok := r.Resolve(DomainBiomarker, "4548-4")
	if !ok {
		t.Fatal("seeded LOINC code not found")
	}
	if key != "a1c_pct" {
		t.Errorf("Resolve(biomarker, 4548-4) = %s, want a1c_pct", key)
	}

	if _, ok := r.Resolve(DomainBiomarker, "0000-0"); ok {
		t.Error("unseeded code resolved")
	}
	if _, ok := r.Resolve(DomainBiomarker, "4548-4 "); ok {
		t.Error("trailing whitespace should not resolve")
	}
}

// Both implementations satisfy the same contract, so either can back the
// registry without changing callers.
func TestResolverContract(t *testing.T) {
	db := openMigratedDB(t)

	resolvers := map[string]Resolver{
		"static": MustStaticResolver(),
		"db":     NewDBResolver(db),
	}
	for name, r := range resolvers {
		key, ok := r.Resolve(DomainBiomarker, "4548-4")
		if !ok || key != "a1c_pct" {
			t.Errorf("%s: Resolve(biomarker, 4548-4) = (%s, %v), want (a1c_pct, true)", name, key, ok)
		}
	}
}
