// internal/workers/matching/match-professor/reason.go
package matchprofessor

import (
	"context"
	"fmt"
	"strings"

	"advisor-workers/internal/models"
)

// ReasonGenerator produces the natural-language match rationale. Satisfied by
// the shared genai wrapper; any failure falls back to a deterministic
// template so the ranking result is always fully populated.
type ReasonGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

var defaultNextSteps = []string{
	"1. Visit the department office to request an advising appointment",
	"2. Prepare your transcript and supporting materials",
	"3. Send your list of questions to the professor by email",
}

func formatIntPtr(v *int) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *v)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.2f", *v)
}

func buildReasonPrompt(best models.ScoredCandidate, analysis models.StudentAnalysis) string {
	return fmt.Sprintf(`Student information:
- Year: %s
- Major: %s
- GPA: %s
- Interests: %s
- Career path: %s
- Target field: %s
- Current preparation: %s
- Advising purpose: %s

Professor information:
- Name: %s
- Department: %s
- Position: %s
- Research areas: %s
- Match score: %d

Matching analysis guidelines:
1. Connection between the student's academic background and the professor's expertise
2. Fit with the student's career goals
3. Concrete areas where mentoring is possible
4. Expected growth points

Based on the information above, explain the suitability of this match and its
expected benefits in 3-4 sentences. Be specific about expertise and relevance,
and end with a positive expected outcome.`,
		formatIntPtr(analysis.StudentProfile.Year),
		analysis.StudentProfile.Major,
		formatFloatPtr(analysis.StudentProfile.GPA),
		strings.Join(analysis.StudentProfile.Interests, ", "),
		analysis.CareerGoals.PathType,
		analysis.CareerGoals.TargetField,
		strings.Join(analysis.CareerGoals.Preparation, ", "),
		analysis.ConsultingNeeds.MainPurpose,
		best.Name,
		best.Department,
		best.Position,
		strings.Join(best.ResearchAreas, ", "),
		best.MatchScore,
	)
}

// fallbackMatchReason is the deterministic template used whenever the
// generator is unavailable or errors.
func fallbackMatchReason(best models.ScoredCandidate) string {
	return fmt.Sprintf(
		"%s is an expert in %s, showing strong relevance to the student's interests and goals.",
		best.Name,
		strings.Join(best.ResearchAreas, ", "),
	)
}
