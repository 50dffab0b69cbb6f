// Package normalize coerces raw, possibly malformed LLM output into the
// canonical result shapes. Valid JSON is the common case; recoverable
// near-JSON is the expected edge case, not an exceptional one.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/praveenlokku/EasyApply/internal/ai"
)

// Field aliases observed across backends. Consulted once per parsed map,
// never scattered per call site.
var analysisAliases = map[string][]string{
	"overallScore":        {"overall_score", "overall", "score"},
	"atsCompatibility":    {"ats_compatibility", "atsScore", "ats_score", "ats"},
	"keywordOptimization": {"keyword_optimization", "keywords", "keywordScore"},
	"experienceRelevance": {"experience_relevance", "experience", "relevance"},
	"recommendations":     {"recommendation", "suggestions", "improvements"},
}

var matchAliases = map[string][]string{
	"id":         {"job_id", "jobId"},
	"title":      {"job_title", "position", "name"},
	"company":    {"company_name", "employer"},
	"location":   {"job_location", "place"},
	"salary":     {"salary_range", "compensation", "pay"},
	"postedDate": {"posted_date", "posted", "date"},
	"matchScore": {"match_score", "score", "fit"},
}

// Analysis extracts an AnalysisResult from raw provider text.
func Analysis(raw string) (*ai.AnalysisResult, error) {
	cleaned := stripFences(raw)

	obj, err := recoverObject(cleaned, hasAnalysisMarkers)
	if err != nil {
		// Field-level recovery can still build a record from scratch
		// when the surrounding JSON is beyond repair.
		obj = map[string]any{}
	}

	applyAliases(obj, analysisAliases)
	recoverAnalysisFields(obj, raw)

	if !hasAnalysisMarkers(obj) {
		return nil, &ai.MalformedResponseError{Raw: raw, Err: errors.New("no analysis fields found")}
	}

	var result ai.AnalysisResult
	if err := weakDecode(obj, &result); err != nil {
		return nil, &ai.MalformedResponseError{Raw: raw, Err: err}
	}

	clampAnalysis(&result)
	return &result, nil
}

// Matches extracts an ordered job-match batch from raw provider text. Order
// is preserved as reported by the source, never re-sorted.
func Matches(raw string) ([]ai.JobMatch, error) {
	cleaned := stripFences(raw)

	items, err := recoverArray(cleaned)
	if err != nil {
		return nil, &ai.MalformedResponseError{Raw: raw, Err: err}
	}

	matches := make([]ai.JobMatch, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		applyAliases(obj, matchAliases)

		// Shape markers apply no matter which ladder step produced the
		// array; a strictly-parsed batch can still hold junk rows.
		if !hasMatchMarkers(obj) {
			continue
		}

		var match ai.JobMatch
		if err := weakDecode(obj, &match); err != nil {
			continue
		}

		if strings.TrimSpace(match.ID) == "" {
			match.ID = fmt.Sprintf("job-%d", len(matches)+1)
		}
		match.MatchScore = clamp(match.MatchScore, 0, 100)

		matches = append(matches, match)
	}

	if len(matches) == 0 {
		return nil, &ai.MalformedResponseError{Raw: raw, Err: errors.New("no job matches found")}
	}

	return matches, nil
}

// recoverObject runs the repair ladder for a single object shape: strict
// parse, candidate scan, textual repairs.
func recoverObject(cleaned string, markers func(map[string]any) bool) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, nil
	}

	for _, candidate := range scanCandidates(cleaned, '{', '}') {
		var c map[string]any
		if err := json.Unmarshal([]byte(candidate), &c); err == nil && markers(c) {
			return c, nil
		}
	}

	repaired := cleaned
	for _, r := range repairs {
		repaired = r(repaired)
		var c map[string]any
		if err := json.Unmarshal([]byte(repaired), &c); err == nil {
			return c, nil
		}
	}

	return nil, errors.New("no recoverable object found")
}

// recoverArray runs the ladder for the batch shape, finishing with the
// single-object-to-batch wrap.
func recoverArray(cleaned string) ([]any, error) {
	var items []any
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return items, nil
	}

	for _, candidate := range scanCandidates(cleaned, '[', ']') {
		var c []any
		if err := json.Unmarshal([]byte(candidate), &c); err == nil && arrayHasMatchMarkers(c) {
			return c, nil
		}
	}

	repaired := cleaned
	for _, r := range repairs {
		repaired = r(repaired)
		var c []any
		if err := json.Unmarshal([]byte(repaired), &c); err == nil {
			return c, nil
		}
	}

	// The source may have answered with a single item instead of a batch.
	if obj, err := recoverObject(cleaned, hasMatchMarkers); err == nil && hasMatchMarkers(obj) {
		return []any{obj}, nil
	}

	return nil, errors.New("no recoverable array found")
}

// applyAliases renames known field variants to their canonical name. A
// canonical key already present wins over any alias.
func applyAliases(obj map[string]any, aliases map[string][]string) {
	for canonical, variants := range aliases {
		if _, ok := obj[canonical]; ok {
			continue
		}
		for _, v := range variants {
			if value, ok := obj[v]; ok {
				obj[canonical] = value
				delete(obj, v)
				break
			}
		}
	}
}

func weakDecode(obj map[string]any, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(obj)
}

func hasAnalysisMarkers(obj map[string]any) bool {
	for canonical, variants := range analysisAliases {
		if canonical == "recommendations" {
			continue
		}
		if _, ok := obj[canonical]; ok {
			return true
		}
		for _, v := range variants {
			if _, ok := obj[v]; ok {
				return true
			}
		}
	}
	return false
}

// hasMatchMarkers requires a title and company pair in some spelling.
func hasMatchMarkers(obj map[string]any) bool {
	return hasAnyKey(obj, "title", matchAliases["title"]) &&
		hasAnyKey(obj, "company", matchAliases["company"])
}

func arrayHasMatchMarkers(items []any) bool {
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			return hasMatchMarkers(obj)
		}
	}
	return false
}

func hasAnyKey(obj map[string]any, canonical string, variants []string) bool {
	if _, ok := obj[canonical]; ok {
		return true
	}
	for _, v := range variants {
		if _, ok := obj[v]; ok {
			return true
		}
	}
	return false
}

func clampAnalysis(r *ai.AnalysisResult) {
	r.OverallScore = clamp(r.OverallScore, 0, 100)
	r.ATSCompatibility = clamp(r.ATSCompatibility, 0, 100)
	r.KeywordOptimization = clamp(r.KeywordOptimization, 0, 100)
	r.ExperienceRelevance = clamp(r.ExperienceRelevance, 0, 100)

	if len(r.Recommendations) > ai.MaxRecommendations {
		r.Recommendations = r.Recommendations[:ai.MaxRecommendations]
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
