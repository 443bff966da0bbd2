// internal/models/analysis.go
package models

// StudentAnalysis holds the structured facts extracted from a consultation
// chat. Every field is always present with a typed default (nil pointer,
// empty string or empty slice) so downstream consumers never need to probe
// for missing keys.
type StudentAnalysis struct {
	StudentProfile   StudentProfile   `json:"studentProfile"`
	CareerGoals      CareerGoals      `json:"careerGoals"`
	ConsultingNeeds  ConsultingNeeds  `json:"consultingNeeds"`
	RecommendedFocus RecommendedFocus `json:"recommendedFocus"`
}

type StudentProfile struct {
	Year      *int     `json:"year"`
	Major     string   `json:"major"`
	GPA       *float64 `json:"gpa"`
	Interests []string `json:"interests"`
}

type CareerGoals struct {
	PathType    string   `json:"pathType"`
	TargetField string   `json:"targetField"`
	Preparation []string `json:"preparation"`
}

type ConsultingNeeds struct {
	MainPurpose       string   `json:"mainPurpose"`
	SpecificQuestions []string `json:"specificQuestions"`
	CurrentChallenges []string `json:"currentChallenges"`
}

type RecommendedFocus struct {
	Strengths      []string `json:"strengths"`
	AreasToImprove []string `json:"areasToImprove"`
	NextSteps      []string `json:"nextSteps"`
}

// DefaultAnalysis returns a fully-zeroed analysis with all slices allocated.
// Used both as the extraction fallback and as the template embedded in the
// extraction prompt.
func DefaultAnalysis() StudentAnalysis {
	return StudentAnalysis{
		StudentProfile: StudentProfile{
			Interests: []string{},
		},
		CareerGoals: CareerGoals{
			Preparation: []string{},
		},
		ConsultingNeeds: ConsultingNeeds{
			SpecificQuestions: []string{},
			CurrentChallenges: []string{},
		},
		RecommendedFocus: RecommendedFocus{
			Strengths:      []string{},
			AreasToImprove: []string{},
			NextSteps:      []string{},
		},
	}
}

// Normalize replaces nil slices with empty ones so the totality invariant
// holds regardless of how the value was decoded.
func (a *StudentAnalysis) Normalize() {
	if a.StudentProfile.Interests == nil {
		a.StudentProfile.Interests = []string{}
	}
	if a.CareerGoals.Preparation == nil {
		a.CareerGoals.Preparation = []string{}
	}
	if a.ConsultingNeeds.SpecificQuestions == nil {
		a.ConsultingNeeds.SpecificQuestions = []string{}
	}
	if a.ConsultingNeeds.CurrentChallenges == nil {
		a.ConsultingNeeds.CurrentChallenges = []string{}
	}
	if a.RecommendedFocus.Strengths == nil {
		a.RecommendedFocus.Strengths = []string{}
	}
	if a.RecommendedFocus.AreasToImprove == nil {
		a.RecommendedFocus.AreasToImprove = []string{}
	}
	if a.RecommendedFocus.NextSteps == nil {
		a.RecommendedFocus.NextSteps = []string{}
	}
}
