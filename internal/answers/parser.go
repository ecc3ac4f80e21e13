// Package answers extracts a student name and question→letter answer map
// from recognized answer-sheet text using label-anchored patterns.
package answers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// UnknownStudent is returned as the student name when no name label is
// found in the text.
const UnknownStudent = "Noma'lum o'quvchi"

// fallbackConfidence is the fixed confidence assigned to rule-based
// extraction, which carries no backend-reported score of its own.
const fallbackConfidence = 0.6

// Name labels in priority order: "ism" (name), "foydalanuvchi" (user),
// "ismi" (full name). The capture accepts Latin and Cyrillic letters so
// both Uzbek scripts parse.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ism[:\s]*([\p{Latin}\p{Cyrillic}\s]+)`),
	regexp.MustCompile(`(?i)foydalanuvchi[:\s]*([\p{Latin}\p{Cyrillic}\s]+)`),
	regexp.MustCompile(`(?i)ismi[:\s]*([\p{Latin}\p{Cyrillic}\s]+)`),
}

// Answer line formats, scanned in this order over the whole text. All
// three run even when an earlier one matched; a later match for the same
// question number overwrites the earlier letter.
var answerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)[.)]\s*([A-Da-d])`),        // 1. A / 2) B
	regexp.MustCompile(`(?i)savol\s*(\d+)[:\s]*([A-Da-d])`), // Savol 1: A
	regexp.MustCompile(`(?i)(\d+)\s*-\s*([A-Da-d])`),        // 1 - A
}

// Parser performs deterministic rule-based answer extraction. It never
// fails: missing matches degrade to placeholder values.
type Parser struct{}

// NewParser returns a rule-based answer parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts a student name and answers from raw text.
func (p *Parser) Parse(raw string) model.ExtractedAnswers {
	return model.ExtractedAnswers{
		StudentName: p.studentName(raw),
		Answers:     p.answers(raw),
		Confidence:  fallbackConfidence,
		Source:      model.SourceFallbackRegex,
	}
}

func (p *Parser) studentName(raw string) string {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}
	return UnknownStudent
}

func (p *Parser) answers(raw string) map[int]string {
	answers := make(map[int]string)
	for _, re := range answerPatterns {
		for _, m := range re.FindAllStringSubmatch(raw, -1) {
			num, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			answers[num] = strings.ToUpper(m[2])
		}
	}
	return answers
}
