package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praveenlokku/EasyApply/internal/ai"
)

const validAnalysis = `{
	"overallScore": 82,
	"atsCompatibility": 75,
	"keywordOptimization": 68,
	"experienceRelevance": 90,
	"recommendations": ["Add metrics to achievements", "Shorten the summary"]
}`

func TestAnalysisRoundTrip(t *testing.T) {
	result, err := Analysis(validAnalysis)
	require.NoError(t, err)

	assert.Equal(t, 82, result.OverallScore)
	assert.Equal(t, 75, result.ATSCompatibility)
	assert.Equal(t, 68, result.KeywordOptimization)
	assert.Equal(t, 90, result.ExperienceRelevance)
	assert.Equal(t, []string{"Add metrics to achievements", "Shorten the summary"}, result.Recommendations)
}

func TestAnalysisFencedEqualsUnfenced(t *testing.T) {
	fenced := "```json\n" + validAnalysis + "\n```"

	plain, err := Analysis(validAnalysis)
	require.NoError(t, err)

	wrapped, err := Analysis(fenced)
	require.NoError(t, err)

	assert.Equal(t, plain, wrapped)
}

func TestAnalysisRepairsSingleQuotesAndTrailingComma(t *testing.T) {
	broken := `{'overallScore': 70, 'atsCompatibility': 65, 'keywordOptimization': 60, 'experienceRelevance': 72, 'recommendations': ['Use action verbs'],}`

	result, err := Analysis(broken)
	require.NoError(t, err)

	assert.Equal(t, 70, result.OverallScore)
	assert.Equal(t, 65, result.ATSCompatibility)
	assert.Equal(t, []string{"Use action verbs"}, result.Recommendations)
}

func TestAnalysisBareKeysAndSmartQuotes(t *testing.T) {
	broken := "{overallScore: 55, atsCompatibility: 50, keywordOptimization: 45, experienceRelevance: 58, recommendations: [“Tighten formatting”]}"

	result, err := Analysis(broken)
	require.NoError(t, err)

	assert.Equal(t, 55, result.OverallScore)
	assert.Equal(t, []string{"Tighten formatting"}, result.Recommendations)
}

func TestAnalysisSnakeCaseAliases(t *testing.T) {
	raw := `{"overall_score": 77, "ats_compatibility": 71, "keyword_optimization": 66, "experience_relevance": 80, "suggestions": ["Add a skills section"]}`

	result, err := Analysis(raw)
	require.NoError(t, err)

	assert.Equal(t, 77, result.OverallScore)
	assert.Equal(t, 71, result.ATSCompatibility)
	assert.Equal(t, 66, result.KeywordOptimization)
	assert.Equal(t, 80, result.ExperienceRelevance)
	assert.Equal(t, []string{"Add a skills section"}, result.Recommendations)
}

func TestAnalysisEmbeddedInProse(t *testing.T) {
	raw := "Sure! Here is the analysis you asked for:\n\n" + validAnalysis + "\n\nLet me know if you need anything else."

	result, err := Analysis(raw)
	require.NoError(t, err)
	assert.Equal(t, 82, result.OverallScore)
}

func TestAnalysisFieldRecoveryFromBrokenJSON(t *testing.T) {
	// Unbalanced braces defeat every structural parse; field patterns
	// must still be pulled from the raw text.
	raw := `The resume scores as follows: {"overallScore": 64, "atsCompatibility": 59, "recommendations": ["Quantify \"impact\" claims", "Trim older roles"`

	result, err := Analysis(raw)
	require.NoError(t, err)

	assert.Equal(t, 64, result.OverallScore)
	assert.Equal(t, 59, result.ATSCompatibility)
	assert.Zero(t, result.KeywordOptimization)
}

func TestAnalysisListRecoveryToleratesEscapedQuotes(t *testing.T) {
	raw := `scores incoming "overallScore": 50 and "recommendations": ["Say \"led\" not \"helped\"", "Add dates"] trailing garbage {{{`

	result, err := Analysis(raw)
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, `Say "led" not "helped"`, result.Recommendations[0])
}

func TestAnalysisClampsScoresAndCapsRecommendations(t *testing.T) {
	raw := `{"overallScore": 180, "atsCompatibility": -20, "keywordOptimization": 100, "experienceRelevance": 101,
		"recommendations": ["a","b","c","d","e","f","g","h","i"]}`

	result, err := Analysis(raw)
	require.NoError(t, err)

	assert.Equal(t, 100, result.OverallScore)
	assert.Equal(t, 0, result.ATSCompatibility)
	assert.Equal(t, 100, result.ExperienceRelevance)
	assert.Len(t, result.Recommendations, ai.MaxRecommendations)
}

func TestAnalysisUnrecoverable(t *testing.T) {
	_, err := Analysis("I could not process the resume, please try again later.")
	require.Error(t, err)

	var malformed *ai.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Raw, "could not process")
}

const validMatches = `[
	{"id": "m-1", "title": "Backend Engineer", "company": "Acme", "location": "Remote", "salary": "$140k", "postedDate": "2026-08-01", "matchScore": 88},
	{"title": "Platform Engineer", "company": "Globex", "location": "Berlin", "salary": "€90k", "postedDate": "2026-08-10", "matchScore": 74}
]`

func TestMatchesRoundTripPreservesOrder(t *testing.T) {
	matches, err := Matches(validMatches)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "Backend Engineer", matches[0].Title)
	assert.Equal(t, "Platform Engineer", matches[1].Title)
}

func TestMatchesSynthesizesMissingIDs(t *testing.T) {
	matches, err := Matches(validMatches)
	require.NoError(t, err)

	assert.Equal(t, "m-1", matches[0].ID)
	assert.Equal(t, "job-2", matches[1].ID)
}

func TestMatchesArrayEmbeddedInProse(t *testing.T) {
	raw := "Here are your matches:\n" + validMatches + "\nGood luck!"

	matches, err := Matches(raw)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestMatchesWrapsSingleObject(t *testing.T) {
	raw := `{"title": "SRE", "company": "Initech", "location": "Austin, TX", "salary": "$150k", "postedDate": "2026-08-15", "matchScore": 91}`

	matches, err := Matches(raw)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.Equal(t, "job-1", matches[0].ID)
	assert.Equal(t, "SRE", matches[0].Title)
}

func TestMatchesSnakeCaseAndStringScores(t *testing.T) {
	raw := `[{"job_title": "Data Engineer", "company_name": "Umbrella", "posted_date": "2026-08-03", "match_score": "79"}]`

	matches, err := Matches(raw)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.Equal(t, "Data Engineer", matches[0].Title)
	assert.Equal(t, "Umbrella", matches[0].Company)
	assert.Equal(t, "2026-08-03", matches[0].PostedDate)
	assert.Equal(t, 79, matches[0].MatchScore)
}

func TestMatchesRejectsRowsWithoutTitleAndCompany(t *testing.T) {
	// Strictly valid JSON is still junk without the match shape.
	_, err := Matches(`[{"a": 1}]`)

	var malformed *ai.MalformedResponseError
	require.ErrorAs(t, err, &malformed)

	// Junk rows are dropped, shaped rows survive.
	matches, err := Matches(`[{"a": 1}, {"title": "SRE", "company": "Initech", "matchScore": 80}]`)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "SRE", matches[0].Title)
}

func TestMatchesUnrecoverable(t *testing.T) {
	_, err := Matches("no structured data here at all")

	var malformed *ai.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
}

func TestRepairFunctions(t *testing.T) {
	cases := []struct {
		name   string
		repair repair
		in     string
		want   string
	}{
		{"smart quotes", normalizeQuoteRunes, "{“a”: “b”}", `{"a": "b"}`},
		{"single quotes", singleToDoubleQuotes, `{'key': 'va"lue'}`, `{"key": "va\"lue"}`},
		{"trailing comma object", removeTrailingSeparators, `{"a": 1,}`, `{"a": 1}`},
		{"trailing comma array", removeTrailingSeparators, `[1, 2, ]`, `[1, 2]`},
		{"bare keys", quoteBareKeys, `{score: 1, next_one: 2}`, `{"score": 1, "next_one": 2}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.repair(tc.in))
		})
	}
}

func TestScanCandidatesLongestFirst(t *testing.T) {
	s := `noise {"a": {"b": 1}} more {"c": 2}`

	candidates := scanCandidates(s, '{', '}')
	require.NotEmpty(t, candidates)

	assert.Equal(t, `{"a": {"b": 1}}`, candidates[0])
	for i := 1; i < len(candidates); i++ {
		assert.LessOrEqual(t, len(candidates[i]), len(candidates[i-1]))
	}
}
