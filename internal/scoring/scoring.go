// Package scoring computes per-user daily health scores from
// canonicalized metric samples and LOINC-coded lab results.
//
// Each domain (vitals, sleep, activity, biomarker) produces a 0-100
// sub-score from the day's canonical values; the total is a weighted
// average over the domains that had data. Samples whose external name
// had no canonical mapping are skipped and counted, never fatal.
package scoring

import (
	"math"
	"sort"

	"github.com/halcyonhealth/halcyon-api/internal/canonical"
	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// Domain weights for the total score. Renormalized over the domains
// that actually had data for the day.
var domainWeights = map[canonical.Domain]float64{
	canonical.DomainVitals:    0.30,
	canonical.DomainSleep:     0.25,
	canonical.DomainActivity:  0.25,
	canonical.DomainBiomarker: 0.20,
}

// band defines the value range scored as optimal for a canonical key,
// and an outer range beyond which the key scores zero. Values between
// the optimal and outer bounds degrade linearly.
type band struct {
	OptimalLow  float64
	OptimalHigh float64
	OuterLow    float64
	OuterHigh   float64
}

// Reference bands per canonical key. Keys without a band contribute a
// neutral 50 so unknown-but-mapped metrics neither inflate nor sink the
// day.
var bands = map[canonical.Key]band{
	// vitals
	"resting_hr":   {50, 70, 30, 110},
	"hrv_ms":       {50, 150, 15, 250},
	"bp_systolic":  {95, 120, 70, 180},
	"bp_diastolic": {60, 80, 40, 120},
	"spo2_pct":     {96, 100, 88, 100},
	"body_temp_c":  {36.1, 37.2, 34.5, 40},
	"resp_rate":    {12, 18, 8, 30},

	// sleep
	"sleep_duration_min":   {420, 540, 180, 720},
	"sleep_deep_min":       {60, 120, 0, 240},
	"sleep_rem_min":        {85, 130, 0, 240},
	"sleep_efficiency_pct": {85, 100, 50, 100},

	// activity
	"steps":       {8000, 15000, 0, 40000},
	"active_kcal": {350, 800, 0, 2500},
	"exercise_min": {25, 90, 0, 300},

	// biomarkers
	"a1c_pct":            {4.5, 5.6, 3.5, 9},
	"glucose_mgdl":       {70, 99, 50, 200},
	"cholesterol_total":  {125, 199, 90, 300},
	"hdl_mgdl":           {50, 90, 25, 120},
	"ldl_mgdl":           {40, 99, 10, 190},
	"triglycerides_mgdl": {40, 149, 10, 400},
	"hemoglobin_gdl":     {12, 17.5, 8, 20},
	"creatinine_mgdl":    {0.6, 1.2, 0.3, 2.5},
	"tsh_miul":           {0.4, 4.0, 0.05, 10},
	"crp_mgl":            {0, 3, 0, 10},
}

// Input is one canonicalized value to score. Key is empty when the
// source sample could not be mapped.
type Input struct {
	Domain canonical.Domain
	Key    canonical.Key
	Value  float64
}

// DayScore is the computed score for one day. Sub-scores are nil for
// domains without data.
type DayScore struct {
	Total           int
	Vitals          *int
	Sleep           *int
	Activity        *int
	Biomarker       *int
	UnmappedMetrics int
}

// FromSamples converts metric samples to scoring inputs. Samples with
// an empty canonical key become unmapped inputs.
func FromSamples(samples []*models.MetricSample) []Input {
	inputs := make([]Input, 0, len(samples))
	for _, s := range samples {
		inputs = append(inputs, Input{
			Domain: canonical.Domain(s.Domain),
			Key:    canonical.Key(s.CanonicalKey),
			Value:  s.Value,
		})
	}
	return inputs
}

// FromLabResults converts lab results to biomarker inputs, resolving
// LOINC codes through the registry. Unresolved codes become unmapped
// inputs.
func FromLabResults(results []*models.LabResult, resolver canonical.Resolver) []Input {
	inputs := make([]Input, 0, len(results))
	for _, r := range results {
		key, ok := resolver.Resolve(canonical.DomainBiomarker, r.LoincCode)
		if !ok {
			key = ""
		}
		inputs = append(inputs, Input{
			Domain: canonical.DomainBiomarker,
			Key:    key,
			Value:  r.Value,
		})
	}
	return inputs
}

// Compute scores one day of inputs.
func Compute(inputs []Input) DayScore {
	byKey := make(map[canonical.Domain]map[canonical.Key][]float64)
	unmapped := 0

	for _, in := range inputs {
		if in.Key == "" {
			unmapped++
			continue
		}
		if !in.Domain.Valid() {
			unmapped++
			continue
		}
		if byKey[in.Domain] == nil {
			byKey[in.Domain] = make(map[canonical.Key][]float64)
		}
		byKey[in.Domain][in.Key] = append(byKey[in.Domain][in.Key], in.Value)
	}

	score := DayScore{UnmappedMetrics: unmapped}

	subs := make(map[canonical.Domain]int)
	for domain, keys := range byKey {
		subs[domain] = domainScore(keys)
	}

	if v, ok := subs[canonical.DomainVitals]; ok {
		score.Vitals = &v
	}
	if v, ok := subs[canonical.DomainSleep]; ok {
		score.Sleep = &v
	}
	if v, ok := subs[canonical.DomainActivity]; ok {
		score.Activity = &v
	}
	if v, ok := subs[canonical.DomainBiomarker]; ok {
		score.Biomarker = &v
	}

	score.Total = weightedTotal(subs)
	return score
}

// domainScore averages the per-key scores for one domain. Multiple
// values for the same key are averaged first so a key sampled every
// minute does not dominate one sampled daily.
func domainScore(keys map[canonical.Key][]float64) int {
	names := make([]canonical.Key, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	sum := 0.0
	for _, k := range names {
		vals := keys[k]
		avg := 0.0
		for _, v := range vals {
			avg += v
		}
		avg /= float64(len(vals))
		sum += keyScore(k, avg)
	}
	return clampInt(math.Round(sum / float64(len(names))))
}

// keyScore maps a value to 0-100 against the key's reference band.
func keyScore(key canonical.Key, value float64) float64 {
	b, ok := bands[key]
	if !ok {
		return 50
	}
	switch {
	case value >= b.OptimalLow && value <= b.OptimalHigh:
		return 100
	case value <= b.OuterLow || value >= b.OuterHigh:
		return 0
	case value < b.OptimalLow:
		return 100 * (value - b.OuterLow) / (b.OptimalLow - b.OuterLow)
	default:
		return 100 * (b.OuterHigh - value) / (b.OuterHigh - b.OptimalHigh)
	}
}

// weightedTotal averages sub-scores with domain weights renormalized
// over the present domains. No data at all scores zero.
func weightedTotal(subs map[canonical.Domain]int) int {
	if len(subs) == 0 {
		return 0
	}
	weightSum := 0.0
	acc := 0.0
	for domain, sub := range subs {
		w := domainWeights[domain]
		weightSum += w
		acc += w * float64(sub)
	}
	if weightSum == 0 {
		return 0
	}
	return clampInt(math.Round(acc / weightSum))
}

func clampInt(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
