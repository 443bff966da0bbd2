// internal/workers/chat/chat-message/prompt.go
package chatmessage

import (
	"fmt"
	"regexp"
	"strings"
)

// analysisMarker separates the conversational reply from the machine-readable
// analysis block the model appends once it has gathered enough information.
const analysisMarker = "### ANALYSIS ###"

var analysisBlockPattern = regexp.MustCompile(`### ANALYSIS ###\s*([\s\S]+)`)

const chatPromptTemplate = `You are an academic advising counselor for university students.
You are having a conversation to understand the student well enough to recommend a faculty advisor.

Through natural conversation, learn about the student:
- year of study, major, and GPA
- academic interests and favorite subjects
- career path (graduate school, industry, startup) and target field
- what they want to discuss with an advisor

Guidelines:
1. Ask one question at a time and keep replies short and warm.
2. Do not interrogate. Weave questions into the conversation.
3. When you have learned the student's interests AND career direction, append a line containing exactly "%s" followed by a JSON object with this shape:
{"studentProfile":{"year":null,"major":"","gpa":null,"interests":[],"strengths":[],"concerns":[]},"careerGoals":{"pathType":"","targetField":"","preparation":[]},"consultingNeeds":{"mainPurpose":"","specificQuestions":[],"urgency":""},"recommendedFocus":{"advisingStyle":"","strengths":[],"developmentAreas":[]}}
4. The analysis block is for the system only. Never mention it to the student.

Conversation so far:
%s

Student's new message: %s

Your reply:`

func buildChatPrompt(history []StoredMessage, message string) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Type, msg.Content))
	}
	transcript := strings.Join(lines, "\n")
	if transcript == "" {
		transcript = "(no prior messages)"
	}
	return fmt.Sprintf(chatPromptTemplate, analysisMarker, transcript, message)
}

// splitReply separates the user-visible reply from the trailing analysis
// block, if the model produced one.
func splitReply(response string) (reply string, analysisJSON string, found bool) {
	loc := analysisBlockPattern.FindStringSubmatchIndex(response)
	if loc == nil {
		return strings.TrimSpace(response), "", false
	}
	reply = strings.TrimSpace(response[:loc[0]])
	analysisJSON = strings.TrimSpace(response[loc[2]:loc[3]])
	return reply, analysisJSON, true
}
