package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/healthbridge/healthbridge-backend/internal/clients/llm"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/envutil"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

// PatientContext is the caller-supplied patient information used for risk
// escalation. All fields are optional.
type PatientContext struct {
	Name           string   `json:"name,omitempty"`
	Age            *int     `json:"age,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	MedicalHistory []string `json:"medicalHistory,omitempty"`
}

// Classification is the classifier's full output. The LLM-backed path and the
// deterministic fallback produce the same shape, so downstream components
// never know which ran.
type Classification struct {
	SeverityScore       int
	SeverityLevel       types.SeverityLevel
	RecommendedFacility types.FacilityType
	Priority            types.Priority
	Timeframe           string
	Reasoning           string
	Confidence          float64
	Symptoms            []string
	Recommendations     []string
	RedFlags            []string
}

type ClassifierService interface {
	// Classify never fails: collaborator errors fall back to the deterministic
	// scorer so triage always produces a decision.
	Classify(ctx context.Context, symptoms []string, pc PatientContext, conversationText string) Classification
	// ExtractSymptoms pulls canonical symptom tags out of free text.
	ExtractSymptoms(text string) []string
}

type classifierService struct {
	log        *logger.Logger
	llm        llm.Client
	llmTimeout time.Duration
}

// NewClassifierService accepts a nil LLM client; the service then runs
// fallback-only (offline deployments).
func NewClassifierService(baseLog *logger.Logger, llmClient llm.Client) ClassifierService {
	return &classifierService{
		log:        baseLog.With("service", "ClassifierService"),
		llm:        llmClient,
		llmTimeout: envutil.Duration("CLASSIFIER_LLM_TIMEOUT", 8*time.Second),
	}
}

// Symptom risk tiers. Red-flag symptoms route straight to the emergency tier
// regardless of the arithmetic score.
var (
	highRiskSymptoms = map[string]bool{
		"chest_pain":           true,
		"difficulty_breathing": true,
		"severe_bleeding":      true,
		"unconsciousness":      true,
		"stroke_symptoms":      true,
		"heart_attack":         true,
		"severe_burns":         true,
		"poisoning":            true,
		"severe_trauma":        true,
	}
	mediumRiskSymptoms = map[string]bool{
		"fever":               true,
		"high_fever":          true,
		"severe_headache":     true,
		"persistent_vomiting": true,
		"severe_diarrhea":     true,
		"abdominal_pain":      true,
	}
)

// Common Hindi symptom phrases mapped to canonical tags.
var symptomAliases = map[string]string{
	"बुखार":                  "fever",
	"सिरदर्द":                "headache",
	"खांसी":                  "cough",
	"छाती में दर्द":          "chest_pain",
	"सांस लेने में तकलीफ":    "difficulty_breathing",
	"पेट दर्द":               "abdominal_pain",
	"उल्टी":                  "vomiting",
	"दस्त":                   "diarrhea",
	"कमजोरी":                 "fatigue",
	"गले में खराश":           "sore_throat",
}

var symptomKeywords = map[string][]string{
	"fever":                {"fever", "temperature", "chills", "बुखार"},
	"headache":             {"headache", "head pain", "migraine", "सिरदर्द"},
	"cough":                {"cough", "coughing", "खांसी"},
	"chest_pain":           {"chest pain", "chest hurt", "छाती में दर्द"},
	"difficulty_breathing": {"difficulty breathing", "shortness of breath", "breathless", "सांस"},
	"abdominal_pain":       {"stomach", "abdominal", "belly", "पेट"},
	"vomiting":             {"vomit", "nausea", "उल्टी"},
	"diarrhea":             {"diarrhea", "loose motions", "दस्त"},
	"fatigue":              {"tired", "weakness", "exhausted", "कमजोरी"},
	"sore_throat":          {"sore throat", "throat pain", "गले"},
	"severe_bleeding":      {"bleeding", "blood loss"},
}

func NormalizeSymptom(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if canonical, ok := symptomAliases[s]; ok {
		return canonical
	}
	return strings.ReplaceAll(s, " ", "_")
}

func (s *classifierService) ExtractSymptoms(text string) []string {
	lowered := strings.ToLower(text)
	var found []string
	seen := map[string]bool{}
	for tag, keywords := range symptomKeywords {
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) && !seen[tag] {
				seen[tag] = true
				found = append(found, tag)
				break
			}
		}
	}
	return found
}

func (s *classifierService) Classify(ctx context.Context, symptoms []string, pc PatientContext, conversationText string) Classification {
	normalized := make([]string, 0, len(symptoms))
	seen := map[string]bool{}
	for _, raw := range symptoms {
		tag := NormalizeSymptom(raw)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}
	if len(normalized) == 0 && strings.TrimSpace(conversationText) != "" {
		normalized = s.ExtractSymptoms(conversationText)
	}

	cls, err := s.classifyLLM(ctx, normalized, pc, conversationText)
	if err != nil {
		if s.llm != nil {
			s.log.Warn("LLM classification failed, using fallback scorer", "error", err)
		}
		cls = s.classifyFallback(normalized, pc)
	}
	return cls
}

func (s *classifierService) classifyLLM(ctx context.Context, symptoms []string, pc PatientContext, conversationText string) (Classification, error) {
	if s.llm == nil {
		return Classification{}, fmt.Errorf("llm client not configured")
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	pcJSON, _ := json.Marshal(pc)
	system := "You are a rural-healthcare triage assistant. Rate symptom urgency for referral routing. " +
		"Respond with a JSON object: {\"severity_score\": <0-100 integer>, \"reasoning\": <string>, \"confidence\": <0-1 float>}."
	user := fmt.Sprintf("Symptoms: %s\nPatient: %s\nMessage: %s",
		strings.Join(symptoms, ", "), string(pcJSON), conversationText)

	out, err := s.llm.GenerateJSON(llmCtx, system, user)
	if err != nil {
		return Classification{}, err
	}

	score, ok := numberField(out, "severity_score")
	if !ok || score < 0 || score > 100 {
		return Classification{}, fmt.Errorf("llm produced no usable severity_score")
	}
	reasoning, _ := out["reasoning"].(string)
	confidence, ok := numberField(out, "confidence")
	if !ok || confidence < 0 || confidence > 1 {
		confidence = 0.7
	}

	intScore := int(score)
	if flags := redFlags(symptoms); len(flags) > 0 && intScore <= 80 {
		intScore = 81
	}
	if reasoning == "" {
		reasoning = fallbackReasoning(symptoms, pc)
	}
	return s.finish(intScore, symptoms, reasoning, confidence), nil
}

// classifyFallback is the deterministic offline scorer: base 20, +30 per
// high-risk symptom, +15 per medium-risk, +5 otherwise, ×1.2 for patients
// under 5 or over 65, clamped to [0,100]. Red-flag symptoms floor the score
// into the emergency band.
func (s *classifierService) classifyFallback(symptoms []string, pc PatientContext) Classification {
	score := 20.0
	for _, symptom := range symptoms {
		switch {
		case highRiskSymptoms[symptom]:
			score += 30
		case mediumRiskSymptoms[symptom]:
			score += 15
		default:
			score += 5
		}
	}
	if pc.Age != nil && (*pc.Age < 5 || *pc.Age > 65) {
		score *= 1.2
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	intScore := int(score)
	if flags := redFlags(symptoms); len(flags) > 0 && intScore <= 80 {
		intScore = 81
	}
	return s.finish(intScore, symptoms, fallbackReasoning(symptoms, pc), 0.7)
}

func (s *classifierService) finish(score int, symptoms []string, reasoning string, confidence float64) Classification {
	level := types.LevelForScore(score)
	return Classification{
		SeverityScore:       score,
		SeverityLevel:       level,
		RecommendedFacility: types.FacilityForScore(score),
		Priority:            types.PriorityForLevel(level),
		Timeframe:           types.TimeframeForLevel(level),
		Reasoning:           reasoning,
		Confidence:          confidence,
		Symptoms:            symptoms,
		Recommendations:     recommendationsForLevel(level),
		RedFlags:            redFlags(symptoms),
	}
}

func redFlags(symptoms []string) []string {
	var flags []string
	for _, symptom := range symptoms {
		if highRiskSymptoms[symptom] {
			flags = append(flags, symptom)
		}
	}
	return flags
}

func fallbackReasoning(symptoms []string, pc PatientContext) string {
	if len(symptoms) == 0 {
		return "No recognizable symptoms reported; defaulting to community-level care."
	}
	b := strings.Builder{}
	b.WriteString("Rule-based assessment of reported symptoms: ")
	b.WriteString(strings.Join(symptoms, ", "))
	if pc.Age != nil && (*pc.Age < 5 || *pc.Age > 65) {
		b.WriteString(fmt.Sprintf("; age %d applies a high-risk escalation", *pc.Age))
	}
	b.WriteString(".")
	return b.String()
}

func recommendationsForLevel(level types.SeverityLevel) []string {
	switch level {
	case types.SeverityCritical:
		return []string{
			"Call 108 for an ambulance immediately",
			"Go to the nearest emergency facility now",
			"Keep the patient calm and monitor breathing",
		}
	case types.SeverityHigh:
		return []string{
			"Visit the Community Health Centre within 2 hours",
			"Arrange transport and bring medical records",
			"Monitor symptoms closely on the way",
		}
	case types.SeverityMedium:
		return []string{
			"Visit the Primary Health Centre within 24 hours",
			"Take prescribed medications",
			"Return immediately if symptoms worsen",
		}
	default:
		return []string{
			"Contact your ASHA worker for guidance",
			"Rest and stay hydrated",
			"Monitor symptoms for 48 hours and seek care if they worsen",
		}
	}
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%f", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
