// internal/workers/analysis/analyze-chat/parser.go
package analyzechat

import (
	"encoding/json"
	"regexp"
	"strings"

	"advisor-workers/internal/models"
)

var jsonBlockPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// extractAnalysisJSON parses model output into a loose document. Direct
// parsing is tried first; on failure the outermost brace block is rescued
// from surrounding prose, code fences and smart quotes are stripped, and
// single quotes are rewritten before a second attempt.
func extractAnalysisJSON(raw string) (map[string]interface{}, bool) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &doc); err == nil {
		return doc, true
	}

	block := jsonBlockPattern.FindString(raw)
	if block == "" {
		return nil, false
	}

	clean := strings.NewReplacer(
		"```json", "",
		"```", "",
		"“", `"`,
		"”", `"`,
		"'", `"`,
	).Replace(block)

	if err := json.Unmarshal([]byte(strings.TrimSpace(clean)), &doc); err != nil {
		return nil, false
	}
	return doc, true
}

// cleanAnalysis coerces a loose document into a total StudentAnalysis,
// mirroring the defaulting contract: absent or mistyped fields become typed
// zero values, never missing keys.
func cleanAnalysis(doc map[string]interface{}) models.StudentAnalysis {
	result := models.DefaultAnalysis()

	if sp, ok := doc["studentProfile"].(map[string]interface{}); ok {
		result.StudentProfile.Year = toIntPtr(sp["year"])
		result.StudentProfile.Major = toString(sp["major"])
		result.StudentProfile.GPA = toFloatPtr(sp["gpa"])
		result.StudentProfile.Interests = toStringSlice(sp["interests"])
	}

	if cg, ok := doc["careerGoals"].(map[string]interface{}); ok {
		result.CareerGoals.PathType = toString(cg["pathType"])
		result.CareerGoals.TargetField = toString(cg["targetField"])
		result.CareerGoals.Preparation = toStringSlice(cg["preparation"])
	}

	if cn, ok := doc["consultingNeeds"].(map[string]interface{}); ok {
		result.ConsultingNeeds.MainPurpose = toString(cn["mainPurpose"])
		result.ConsultingNeeds.SpecificQuestions = toStringSlice(cn["specificQuestions"])
		result.ConsultingNeeds.CurrentChallenges = toStringSlice(cn["currentChallenges"])
	}

	if rf, ok := doc["recommendedFocus"].(map[string]interface{}); ok {
		result.RecommendedFocus.Strengths = toStringSlice(rf["strengths"])
		result.RecommendedFocus.AreasToImprove = toStringSlice(rf["areasToImprove"])
		result.RecommendedFocus.NextSteps = toStringSlice(rf["nextSteps"])
	}

	return result
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toIntPtr(v interface{}) *int {
	f, ok := v.(float64)
	if !ok || f == 0 {
		return nil
	}
	i := int(f)
	return &i
}

func toFloatPtr(v interface{}) *float64 {
	f, ok := v.(float64)
	if !ok || f == 0 {
		return nil
	}
	return &f
}

func toStringSlice(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
