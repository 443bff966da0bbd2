// internal/workers/matching/match-professor/scorer.go
package matchprofessor

import (
	"math"

	"advisor-workers/internal/common/logger"
	"advisor-workers/internal/models"
)

// Matching weights, sum to 100.
const (
	weightResearch     = 40.0
	weightCareer       = 30.0
	weightDepartment   = 20.0
	weightAvailability = 10.0
)

// minimumMatchScore is the base acceptance threshold in raw-score space.
const minimumMatchScore = 30.0

// neutralScore is returned when scoring a candidate fails for any reason, so
// one malformed record never aborts the whole ranking run.
const neutralScore = 60

// SubScores carries the weighted components of one candidate's raw score,
// emitted as a trace for auditability.
type SubScores struct {
	Research     float64 `json:"research"`
	Career       float64 `json:"career"`
	Department   float64 `json:"department"`
	Availability float64 `json:"availability"`
}

func (s SubScores) total() float64 {
	return s.Research + s.Career + s.Department + s.Availability
}

// adjustScoreRange remaps a raw 0-100 score into the presented 60-90 band.
// Strictly monotonic, so relative ranking is unaffected.
func adjustScoreRange(rawScore float64) int {
	return int(math.Round(60 + (rawScore/100)*30))
}

// CalculateMatchScore computes the presented match score for one candidate.
// A panic during scoring is absorbed into the neutral fallback score.
func CalculateMatchScore(professor models.ProfessorRecord, analysis models.StudentAnalysis, log logger.Logger) (score int) {
	defer func() {
		if r := recover(); r != nil {
			if log != nil {
				log.Error("match score calculation failed", map[string]interface{}{
					"professorId": professor.ProfessorID,
					"panic":       r,
				})
			}
			score = neutralScore
		}
	}()

	var scores SubScores

	researchMax := 0.0
	for _, area := range professor.ResearchAreas {
		for _, interest := range analysis.StudentProfile.Interests {
			if sim := Similarity(area, interest); sim > researchMax {
				researchMax = sim
			}
		}
	}
	scores.Research = researchMax * weightResearch

	careerMax := 0.0
	for _, area := range professor.ResearchAreas {
		targetSim := Similarity(area, analysis.CareerGoals.TargetField)
		pathSim := Similarity(area, analysis.CareerGoals.PathType)
		if targetSim > careerMax {
			careerMax = targetSim
		}
		if pathSim > careerMax {
			careerMax = pathSim
		}
	}
	scores.Career = careerMax * weightCareer

	if professor.Department == analysis.StudentProfile.Major {
		scores.Department = weightDepartment
	}
	if professor.AvailableSlots > 0 {
		scores.Availability = weightAvailability
	}

	rawScore := scores.total()
	adjusted := adjustScoreRange(rawScore)

	if log != nil {
		log.Info("matching details", map[string]interface{}{
			"professorId":   professor.ProfessorID,
			"name":          professor.Name,
			"scores":        scores,
			"originalScore": rawScore,
			"adjustedScore": adjusted,
		})
	}

	return adjusted
}

// MatchingThreshold computes the per-candidate acceptance bar. The base of 30
// is relaxed by 0.8 on an exact department match and by a further 0.9 when
// any research area overlaps an interest with similarity above 0.5, with an
// absolute floor of 20. The threshold stays in raw-score space while the
// qualifying comparison uses the presented score; that cross-scale comparison
// is long-standing behavior and is kept as is.
func MatchingThreshold(professor models.ProfessorRecord, analysis models.StudentAnalysis) float64 {
	threshold := minimumMatchScore

	if professor.Department == analysis.StudentProfile.Major {
		threshold *= 0.8
	}

	overlap := false
	for _, area := range professor.ResearchAreas {
		for _, interest := range analysis.StudentProfile.Interests {
			if Similarity(area, interest) > 0.5 {
				overlap = true
				break
			}
		}
		if overlap {
			break
		}
	}
	if overlap {
		threshold *= 0.9
	}

	return math.Max(threshold, 20)
}
