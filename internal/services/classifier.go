package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/matchpoint-backend/internal/clients/groq"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
)

// QuizAnswer is one answered quiz question submitted for classification.
type QuizAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Type     string `json:"type"` // multipleChoice or freeResponse
}

// PersonalityType is one of the fixed classification targets. The set is
// closed so matching stays consistent across users.
type PersonalityType struct {
	TypeName        string   `json:"type_name"`
	Emoji           string   `json:"emoji"`
	Description     string   `json:"description"`
	Strengths       []string `json:"strengths"`
	Recommendations []string `json:"recommendations"`
}

// SafetyReport is the bio safety analysis result.
type SafetyReport struct {
	IsSafe      bool     `json:"is_safe"`
	RiskScore   int      `json:"risk_score"`
	IssuesFound []string `json:"issues_found"`
	Severity    string   `json:"severity"` // safe, warning, danger
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

// BioEnhancement carries improvement suggestions for a bio text.
type BioEnhancement struct {
	Suggestions  []string `json:"suggestions"`
	QualityScore int      `json:"quality_score"`
}

const defaultTypeName = "The Peacemaker"

var personalityTypes = map[string]PersonalityType{
	"The Leader": {
		TypeName:    "The Leader",
		Emoji:       "👑",
		Description: "Natural-born leaders who thrive on organizing and inspiring others. You bring structure and vision to any group, making decisive choices with confidence.",
		Strengths: []string{
			"Strong decision-making skills",
			"Natural authority and charisma",
			"Goal-oriented and driven",
			"Excellent at organizing people and projects",
		},
		Recommendations: []string{
			"Works best with supportive and detail-oriented partners",
			"Compatible with Empaths and Analysts who complement leadership",
			"Seeks relationships where both can grow and achieve together",
		},
	},
	"The Empath": {
		TypeName:    "The Empath",
		Emoji:       "💖",
		Description: "Deeply caring individuals who prioritize emotional connections and harmony. You have an innate ability to understand and support others' feelings.",
		Strengths: []string{
			"Exceptional emotional intelligence",
			"Compassionate and supportive",
			"Strong interpersonal skills",
			"Natural peacemaker in conflicts",
		},
		Recommendations: []string{
			"Thrives with partners who value emotional depth",
			"Compatible with Leaders and Adventurers who appreciate sensitivity",
			"Seeks meaningful, heart-centered relationships",
		},
	},
	"The Analyst": {
		TypeName:    "The Analyst",
		Emoji:       "🧠",
		Description: "Logical thinkers who excel at problem-solving and strategic planning. You approach life with curiosity and a desire to understand how things work.",
		Strengths: []string{
			"Strong analytical and critical thinking",
			"Detail-oriented and precise",
			"Independent and self-sufficient",
			"Innovative problem-solver",
		},
		Recommendations: []string{
			"Matches well with partners who appreciate intellectual depth",
			"Compatible with Creatives and Leaders who value logic",
			"Seeks stimulating conversations and shared interests",
		},
	},
	"The Adventurer": {
		TypeName:    "The Adventurer",
		Emoji:       "🌟",
		Description: "Spontaneous and energetic souls who embrace new experiences with enthusiasm. You bring excitement and optimism to every situation.",
		Strengths: []string{
			"Adaptable and flexible",
			"Optimistic and enthusiastic",
			"Open to new experiences",
			"Natural risk-taker and innovator",
		},
		Recommendations: []string{
			"Best matched with partners who enjoy spontaneity",
			"Compatible with Empaths and Creatives who share openness",
			"Seeks fun, dynamic relationships with room for growth",
		},
	},
	"The Creative": {
		TypeName:    "The Creative",
		Emoji:       "🎨",
		Description: "Imaginative visionaries who see the world through a unique lens. You express yourself through originality and appreciate beauty in all forms.",
		Strengths: []string{
			"Highly creative and artistic",
			"Original thinking and innovation",
			"Strong aesthetic appreciation",
			"Expressive and authentic",
		},
		Recommendations: []string{
			"Thrives with partners who appreciate uniqueness",
			"Compatible with Adventurers and Empaths who value expression",
			"Seeks relationships that encourage creative growth",
		},
	},
	"The Peacemaker": {
		TypeName:    "The Peacemaker",
		Emoji:       "🕊️",
		Description: "Calm, balanced individuals who bring harmony wherever they go. You value stability and work to create peaceful environments for everyone.",
		Strengths: []string{
			"Diplomatic and fair-minded",
			"Patient and understanding",
			"Excellent mediator",
			"Creates harmonious environments",
		},
		Recommendations: []string{
			"Matches well with all types due to adaptability",
			"Especially compatible with Leaders and Analysts",
			"Seeks stable, balanced relationships",
		},
	},
	"The Guardian": {
		TypeName:    "The Guardian",
		Emoji:       "🛡️",
		Description: "Reliable protectors who prioritize duty and care for their loved ones. You create security through dedication and thoughtful planning.",
		Strengths: []string{
			"Highly dependable and loyal",
			"Strong sense of responsibility",
			"Practical and organized",
			"Protective of loved ones",
		},
		Recommendations: []string{
			"Compatible with partners who value loyalty",
			"Works well with Empaths and Peacemakers",
			"Seeks committed, long-term relationships",
		},
	},
	"The Visionary": {
		TypeName:    "The Visionary",
		Emoji:       "🔮",
		Description: "Forward-thinking dreamers who imagine possibilities beyond the present. You inspire others with your innovative ideas and big-picture thinking.",
		Strengths: []string{
			"Strategic long-term thinking",
			"Innovative and forward-looking",
			"Inspirational and motivating",
			"Sees connections others miss",
		},
		Recommendations: []string{
			"Thrives with partners who support big dreams",
			"Compatible with Creatives and Analysts",
			"Seeks relationships that encourage mutual growth",
		},
	},
}

var personalityTypeOrder = []string{
	"The Leader", "The Empath", "The Analyst", "The Adventurer",
	"The Creative", "The Peacemaker", "The Guardian", "The Visionary",
}

// ClassifierService fronts the LLM. Every method degrades to a fixed fallback
// instead of returning an error: classification is a best-effort enrichment,
// never a reason to fail a request.
type ClassifierService interface {
	ClassifyPersonality(ctx context.Context, answers []QuizAnswer) PersonalityType
	AnalyzeBioSafety(ctx context.Context, bioText string) (SafetyReport, bool)
	EnhanceBio(ctx context.Context, bioText string) (BioEnhancement, bool)
}

type classifierService struct {
	client   groq.Client
	recorder metrics.Recorder
	log      *logger.Logger
}

// NewClassifierService accepts a nil client; everything then resolves to the
// fallbacks, matching a deployment without an API key.
func NewClassifierService(client groq.Client, recorder metrics.Recorder, baseLog *logger.Logger) ClassifierService {
	return &classifierService{
		client:   client,
		recorder: recorder,
		log:      baseLog.With("service", "ClassifierService"),
	}
}

func (cs *classifierService) ClassifyPersonality(ctx context.Context, answers []QuizAnswer) PersonalityType {
	if cs.client == nil {
		cs.recorder.RecordClassifierFallback("not_configured")
		return personalityTypes[defaultTypeName]
	}

	var formatted []string
	for _, answer := range answers {
		if answer.Type == "freeResponse" {
			formatted = append(formatted, fmt.Sprintf("Q: %s\nA (free response): %s", answer.Question, answer.Answer))
		} else {
			formatted = append(formatted, fmt.Sprintf("Q: %s\nA: %s", answer.Question, answer.Answer))
		}
	}

	var typesList []string
	for _, name := range personalityTypeOrder {
		desc := personalityTypes[name].Description
		if len(desc) > 100 {
			desc = desc[:100] + "..."
		}
		typesList = append(typesList, "- "+name+": "+desc)
	}

	prompt := fmt.Sprintf(`Based on these personality quiz responses (including some free-response answers), classify the person into ONE of these EXACT personality types:

%s

Quiz Responses:
%s

Pay special attention to the free-response answers as they reveal deeper personality traits. Analyze all responses together and determine which ONE personality type fits best. Respond with ONLY the exact type name from the list above, nothing else. Choose from:
%s`, strings.Join(typesList, "\n"), strings.Join(formatted, "\n\n"), strings.Join(personalityTypeOrder, ", "))

	start := time.Now()
	label, err := cs.client.Complete(ctx,
		"You are a personality classification expert. Respond with ONLY the personality type name, nothing else.",
		prompt, 0.3, 50)
	cs.recorder.RecordClassifierLatency(time.Since(start))
	if err != nil {
		cs.log.Warn("Personality classification failed, using default", "error", err)
		cs.recorder.RecordClassifierFallback("upstream_error")
		return personalityTypes[defaultTypeName]
	}

	return matchPersonalityLabel(label)
}

// matchPersonalityLabel resolves a model output to a fixed type: exact match,
// then case-insensitive substring, then the default.
func matchPersonalityLabel(label string) PersonalityType {
	label = strings.TrimSpace(label)
	if pt, ok := personalityTypes[label]; ok {
		return pt
	}
	lower := strings.ToLower(label)
	for _, name := range personalityTypeOrder {
		if strings.Contains(lower, strings.ToLower(name)) {
			return personalityTypes[name]
		}
	}
	return personalityTypes[defaultTypeName]
}

// AnalyzeBioSafety returns the report and whether it is a fallback.
func (cs *classifierService) AnalyzeBioSafety(ctx context.Context, bioText string) (SafetyReport, bool) {
	if cs.client == nil {
		cs.recorder.RecordClassifierFallback("not_configured")
		return fallbackSafetyReport("AI analysis unavailable, but basic check passed"), true
	}

	prompt := fmt.Sprintf(`You are a privacy and safety expert for a matchmaking platform.

Analyze this bio text for any personal information that could compromise user safety:

BIO TEXT: %q

Look for:
- Phone numbers, emails, addresses
- Specific locations (venues, buildings, streets)
- Routines (specific times + days)
- SSN, credit cards, or sensitive IDs
- Full names with other identifying info

Respond ONLY in this exact JSON format:
{
  "is_safe": true or false,
  "risk_score": 0-100,
  "issues_found": ["list of specific issues, empty array if none"],
  "severity": "safe" or "warning" or "danger",
  "message": "brief explanation for the user",
  "suggestions": ["how to improve safety, empty array if safe"]
}`, bioText)

	start := time.Now()
	raw, err := cs.client.Complete(ctx,
		"You are a safety analysis AI. Respond ONLY with valid JSON.",
		prompt, 0.2, 800)
	cs.recorder.RecordClassifierLatency(time.Since(start))
	if err != nil {
		cs.log.Warn("Bio safety analysis failed, using fallback", "error", err)
		cs.recorder.RecordClassifierFallback("upstream_error")
		return fallbackSafetyReport("AI analysis unavailable, but basic check passed"), true
	}

	var report SafetyReport
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &report); err != nil {
		cs.log.Warn("Bio safety response is not valid JSON, using fallback", "error", err)
		cs.recorder.RecordClassifierFallback("bad_payload")
		return fallbackSafetyReport("No obvious safety issues detected"), true
	}
	if report.IssuesFound == nil {
		report.IssuesFound = []string{}
	}
	if report.Suggestions == nil {
		report.Suggestions = []string{}
	}
	return report, false
}

// EnhanceBio returns bio suggestions and whether they are the fallback set.
func (cs *classifierService) EnhanceBio(ctx context.Context, bioText string) (BioEnhancement, bool) {
	if cs.client == nil {
		cs.recorder.RecordClassifierFallback("not_configured")
		return fallbackEnhancement(), true
	}

	prompt := fmt.Sprintf(`You are a matchmaking profile expert. Suggest 3 specific ways to improve this bio:

%q

Make it more engaging, authentic, and appealing while keeping it safe.

Respond ONLY in this JSON format:
{
  "suggestions": ["suggestion 1", "suggestion 2", "suggestion 3"],
  "quality_score": 1-10
}`, bioText)

	start := time.Now()
	raw, err := cs.client.Complete(ctx,
		"You are a bio writing expert. Respond ONLY with valid JSON.",
		prompt, 0.7, 500)
	cs.recorder.RecordClassifierLatency(time.Since(start))
	if err != nil {
		cs.log.Warn("Bio enhancement failed, using fallback", "error", err)
		cs.recorder.RecordClassifierFallback("upstream_error")
		return fallbackEnhancement(), true
	}

	var enhancement BioEnhancement
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &enhancement); err != nil {
		cs.log.Warn("Bio enhancement response is not valid JSON, using fallback", "error", err)
		cs.recorder.RecordClassifierFallback("bad_payload")
		return fallbackEnhancement(), true
	}
	if enhancement.Suggestions == nil {
		enhancement.Suggestions = []string{}
	}
	return enhancement, false
}

func fallbackSafetyReport(message string) SafetyReport {
	return SafetyReport{
		IsSafe:      true,
		RiskScore:   0,
		IssuesFound: []string{},
		Severity:    "safe",
		Message:     message,
		Suggestions: []string{},
	}
}

func fallbackEnhancement() BioEnhancement {
	return BioEnhancement{
		Suggestions: []string{
			"Add more specific details about your interests",
			"Show your personality through your writing style",
			"Mention what you're looking for",
		},
		QualityScore: 7,
	}
}

// stripJSONFences unwraps a markdown code fence around a JSON payload.
func stripJSONFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "```json"); idx >= 0 {
		raw = raw[idx+len("```json"):]
		if end := strings.Index(raw, "```"); end >= 0 {
			raw = raw[:end]
		}
		return strings.TrimSpace(raw)
	}
	if idx := strings.Index(raw, "```"); idx >= 0 {
		raw = raw[idx+len("```"):]
		if end := strings.Index(raw, "```"); end >= 0 {
			raw = raw[:end]
		}
		return strings.TrimSpace(raw)
	}
	return raw
}
