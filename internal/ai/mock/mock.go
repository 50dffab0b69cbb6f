// Package mock produces synthetic analysis, match and extraction results
// when no real provider is usable. Output is deterministic in shape but
// stochastic in value; generation has no external dependency and never
// fails, which makes it the terminal fallback tier.
package mock

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/praveenlokku/EasyApply/internal/ai"
)

// Generator implements the fallback tier of the AI service. One instance is
// shared across concurrent requests, so the rand source sits behind a mutex.
type Generator struct {
	mu   sync.Mutex
	rand *rand.Rand
	now  func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:  time.Now,
	}
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rand.Intn(n)
}

var baseRecommendations = []string{
	"Add quantifiable achievements to your experience section",
	"Include more industry-specific keywords",
	"Use stronger action verbs at the start of each bullet point",
	"Keep the resume to at most two pages",
	"Move your most relevant experience to the top",
}

var jobTargetedRecommendations = []string{
	"Mirror key terms from the job description in your summary",
	"Highlight the experience most relevant to this specific role",
}

// Analysis derives a base score from input length as a rough quality proxy,
// then jitters each sub-score independently. Scores stay within [0,100].
func (g *Generator) Analysis(resumeText, jobDescription string) *ai.AnalysisResult {
	base := 40 + len(resumeText)/100
	if base > 75 {
		base = 75
	}

	recommendations := append([]string{}, baseRecommendations...)
	if strings.TrimSpace(jobDescription) != "" {
		recommendations = append(recommendations, jobTargetedRecommendations...)
	}
	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}

	return &ai.AnalysisResult{
		OverallScore:        g.jitter(base, 15),
		ATSCompatibility:    g.jitter(base, 20),
		KeywordOptimization: g.jitter(base, 20),
		ExperienceRelevance: g.jitter(base, 15),
		Recommendations:     recommendations,
	}
}

var (
	titles = []string{
		"Software Engineer", "Senior Backend Developer", "Full Stack Developer",
		"DevOps Engineer", "Data Engineer", "Platform Engineer", "Site Reliability Engineer",
	}
	companies = []string{
		"TechNova", "CloudSprint", "DataForge", "BrightStack", "NimbusWorks", "CodeHarbor",
	}
	locations = []string{
		"Remote", "San Francisco, CA", "New York, NY", "Austin, TX", "Seattle, WA", "Boston, MA",
	}
	salaryBands = []string{
		"$90,000 - $110,000", "$110,000 - $135,000", "$135,000 - $160,000", "$160,000 - $190,000",
	}
)

const mockMatchCount = 5

// Matches synthesizes exactly five postings with scores in [65,95] and
// posted dates within the last 30 days.
func (g *Generator) Matches(resumeText string) []ai.JobMatch {
	matches := make([]ai.JobMatch, 0, mockMatchCount)
	for i := 0; i < mockMatchCount; i++ {
		posted := g.now().AddDate(0, 0, -g.intn(30))
		matches = append(matches, ai.JobMatch{
			ID:         fmt.Sprintf("job-%d", i+1),
			Title:      titles[g.intn(len(titles))],
			Company:    companies[g.intn(len(companies))],
			Location:   locations[g.intn(len(locations))],
			Salary:     salaryBands[g.intn(len(salaryBands))],
			PostedDate: posted.Format("2006-01-02"),
			MatchScore: 65 + g.intn(31),
		})
	}
	return matches
}

// ExtractText ignores the actual document content beyond its size and MIME
// type, which only feed the cosmetic header.
func (g *Generator) ExtractText(data []byte, mimeType string) string {
	return fmt.Sprintf(`[Extracted from %s upload, %d bytes]

JANE DOE
jane.doe@example.com | (555) 010-7421 | linkedin.com/in/janedoe

SUMMARY
Software engineer with 5+ years of experience building backend services
and data pipelines. Comfortable owning features end to end.

EXPERIENCE
Senior Software Engineer, Example Corp (2022 - Present)
- Designed and operated Go services handling 40k requests per minute
- Cut infrastructure spend 18%% by consolidating batch workloads

Software Engineer, Sample Systems (2019 - 2022)
- Built REST APIs and internal tooling used by 200+ engineers

EDUCATION
B.S. Computer Science, State University

SKILLS
Go, Python, PostgreSQL, Docker, Kubernetes, AWS`, mimeType, len(data))
}

// jitter returns base +/- spread, clamped to [0,100].
func (g *Generator) jitter(base, spread int) int {
	v := base + g.intn(2*spread+1) - spread
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
