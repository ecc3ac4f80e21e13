package model

// RecognitionBackend identifies which backend produced a recognition result.
type RecognitionBackend string

const (
	BackendPrimaryVision   RecognitionBackend = "PRIMARY_VISION"
	BackendSecondaryVision RecognitionBackend = "SECONDARY_VISION"
	BackendRegionalVision  RecognitionBackend = "REGIONAL_VISION"
	BackendLocalOCR        RecognitionBackend = "LOCAL_OCR"
	BackendUnavailable     RecognitionBackend = "UNAVAILABLE"
)

// RecognitionResult is the raw text recognized from one answer-sheet image.
// Confidence is backend-reported and not independently verified.
type RecognitionResult struct {
	Text       string             `json:"text"`
	Confidence float64            `json:"confidence"`
	Backend    RecognitionBackend `json:"backend"`
}

// AnswerSource identifies how a set of answers was extracted from raw text.
type AnswerSource string

const (
	SourceSemantic      AnswerSource = "SEMANTIC"
	SourceFallbackRegex AnswerSource = "FALLBACK_REGEX"
)

// ExtractedAnswers holds the student identity and the question→answer mapping
// pulled out of one recognized text blob. Answer keys are 1-based question
// ordinals; values are single uppercase letters A–D.
type ExtractedAnswers struct {
	StudentName string         `json:"student_name"`
	Answers     map[int]string `json:"answers"`
	Confidence  float64        `json:"confidence"`
	Source      AnswerSource   `json:"source"`
	Notes       string         `json:"notes,omitempty"`
}
