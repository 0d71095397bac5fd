// Package pii filters personally identifiable information out of quiz
// response collections before they are exposed on public surfaces.
package pii

import "strings"

// Response is one quiz answer as submitted by the frontend.
type Response struct {
	Question string `json:"question"`
	Response any    `json:"response"`
	Type     string `json:"type,omitempty"`
}

// Keywords that mark a question as PII-collecting. Matching is a substring
// heuristic; questions that ask for PII in other words will pass through.
var piiKeywords = []string{
	"full name",
	"ssn",
	"where do you live",
	"address",
	"ip",
}

// FilterSafe returns the subset of responses whose questions do not contain a
// PII keyword. Order-preserving and idempotent; never fails.
func FilterSafe(responses []Response) []Response {
	safe := make([]Response, 0, len(responses))
	for _, resp := range responses {
		if !IsPIIQuestion(resp.Question) {
			safe = append(safe, resp)
		}
	}
	return safe
}

// IsPIIQuestion reports whether a question text asks for PII.
func IsPIIQuestion(question string) bool {
	lower := strings.ToLower(question)
	for _, keyword := range piiKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
