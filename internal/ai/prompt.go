package ai

import (
	"fmt"
	"strings"
)

// Prompt templates are deterministic: a fixed system instruction plus a user
// instruction embedding the caller's text. Backends are told to answer with
// bare JSON, but the normalizer never trusts them to comply.

const AnalyzeSystemPrompt = `You are an expert resume reviewer and ATS (applicant tracking system) specialist.
Evaluate the resume you are given and respond with ONLY a valid JSON object in this exact format:
{
  "overallScore": <integer 0-100>,
  "atsCompatibility": <integer 0-100>,
  "keywordOptimization": <integer 0-100>,
  "experienceRelevance": <integer 0-100>,
  "recommendations": [<up to 5 short actionable strings>]
}
Do not include markdown, code fences, or any text before or after the JSON.`

const MatchSystemPrompt = `You are a job matching engine.
Given a resume, respond with ONLY a valid JSON array of 5 job matches, ordered by relevance, in this exact format:
[
  {
    "id": <string>,
    "title": <string>,
    "company": <string>,
    "location": <string>,
    "salary": <string>,
    "postedDate": <string, YYYY-MM-DD>,
    "matchScore": <integer 0-100>
  }
]
Do not include markdown, code fences, or any text before or after the JSON.`

// ExtractInstruction accompanies an inline document payload.
const ExtractInstruction = `Transcribe the attached resume document into clean plain text.
Preserve section headings and bullet points. Organize the content as: contact
information, summary, experience, education, skills. Respond with the
transcribed text only.`

// AnalyzeUserPrompt embeds the resume and optional job description.
func AnalyzeUserPrompt(resumeText, jobDescription string) string {
	var b strings.Builder
	b.WriteString("Resume:\n")
	b.WriteString(resumeText)
	if strings.TrimSpace(jobDescription) != "" {
		b.WriteString("\n\nTarget job description:\n")
		b.WriteString(jobDescription)
		b.WriteString("\n\nScore the resume against this specific job description.")
	}
	return b.String()
}

// MatchUserPrompt embeds the resume for job matching.
func MatchUserPrompt(resumeText string) string {
	return fmt.Sprintf("Resume:\n%s\n\nReturn the 5 most relevant job matches.", resumeText)
}
