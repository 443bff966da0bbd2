// internal/workers/analysis/analyze-chat/schema.go
package analyzechat

// analysisSchema is the totality contract for extracted analyses: every
// section and field present, typed, with nulls only where allowed. Cleaned
// output is checked against it before leaving this worker.
const analysisSchema = `{
  "type": "object",
  "required": ["studentProfile", "careerGoals", "consultingNeeds", "recommendedFocus"],
  "properties": {
    "studentProfile": {
      "type": "object",
      "required": ["year", "major", "gpa", "interests"],
      "properties": {
        "year": {"type": ["integer", "null"]},
        "major": {"type": "string"},
        "gpa": {"type": ["number", "null"]},
        "interests": {"type": "array", "items": {"type": "string"}}
      }
    },
    "careerGoals": {
      "type": "object",
      "required": ["pathType", "targetField", "preparation"],
      "properties": {
        "pathType": {"type": "string"},
        "targetField": {"type": "string"},
        "preparation": {"type": "array", "items": {"type": "string"}}
      }
    },
    "consultingNeeds": {
      "type": "object",
      "required": ["mainPurpose", "specificQuestions", "currentChallenges"],
      "properties": {
        "mainPurpose": {"type": "string"},
        "specificQuestions": {"type": "array", "items": {"type": "string"}},
        "currentChallenges": {"type": "array", "items": {"type": "string"}}
      }
    },
    "recommendedFocus": {
      "type": "object",
      "required": ["strengths", "areasToImprove", "nextSteps"],
      "properties": {
        "strengths": {"type": "array", "items": {"type": "string"}},
        "areasToImprove": {"type": "array", "items": {"type": "string"}},
        "nextSteps": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}`
