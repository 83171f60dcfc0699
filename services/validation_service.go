package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"easyform/models"
)

// ValidationService validates a questionnaire and its answer map before
// anything touches storage, and sanitizes accepted input afterwards.
// Validation always sees the raw input; sanitization runs only on accepted
// submissions.
type ValidationService interface {
	ValidateFormSubmission(req *models.FormSubmissionRequest) error
	SanitizeQuestions(questions []models.Question) []models.Question
	SanitizeAnswers(answers map[string]interface{}) map[string]interface{}
}

// validationService implements the ValidationService interface.
type validationService struct {
	maxQuestionnaireLength int
	maxAnswerLength        int
}

// NewValidationService creates a new instance of ValidationService with the
// configured questionnaire and answer limits.
func NewValidationService(maxQuestionnaireLength, maxAnswerLength int) ValidationService {
	return &validationService{
		maxQuestionnaireLength: maxQuestionnaireLength,
		maxAnswerLength:        maxAnswerLength,
	}
}

// ValidateFormSubmission checks questions, answers and the optional user
// email, in that order. The first violation wins; no error aggregation.
func (s *validationService) ValidateFormSubmission(req *models.FormSubmissionRequest) error {
	if err := s.validateQuestions(req.Questions); err != nil {
		return err
	}
	if err := s.validateAnswers(req.Answers, req.Questions); err != nil {
		return err
	}
	if req.UserEmail != "" && !isValidEmail(req.UserEmail) {
		return fmt.Errorf("Invalid email format")
	}
	return nil
}

func (s *validationService) validateQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("At least one question is required")
	}
	if len(questions) > s.maxQuestionnaireLength {
		return fmt.Errorf("Maximum %d questions allowed", s.maxQuestionnaireLength)
	}

	seen := make(map[string]bool, len(questions))
	for _, question := range questions {
		if question.ID == "" {
			return fmt.Errorf("Each question must have a valid id")
		}
		if seen[question.ID] {
			return fmt.Errorf("Duplicate question id: %s", question.ID)
		}
		seen[question.ID] = true

		if !question.Type.IsValid() {
			return fmt.Errorf("Invalid question type: %s", question.Type)
		}
		if question.Title == "" {
			return fmt.Errorf("Each question must have a title")
		}
		if question.Type == models.QuestionTypeMultipleChoice && len(question.Options) == 0 {
			return fmt.Errorf("Multiple choice questions must have options")
		}
	}
	return nil
}

func (s *validationService) validateAnswers(answers map[string]interface{}, questions []models.Question) error {
	if answers == nil {
		return fmt.Errorf("Answers must be an object")
	}

	questionsByID := make(map[string]*models.Question, len(questions))
	for i := range questions {
		questionsByID[questions[i].ID] = &questions[i]
	}

	// Map iteration order is random; walk keys sorted so the same bad input
	// always surfaces the same first error.
	keys := make([]string, 0, len(answers))
	for key := range answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, questionID := range keys {
		question, exists := questionsByID[questionID]
		if !exists {
			return fmt.Errorf("Answer provided for unknown question: %s", questionID)
		}

		answer := answers[questionID]
		if isEmptyAnswer(answer) {
			if question.Required {
				return fmt.Errorf("Required question '%s' must be answered", question.Title)
			}
			continue
		}

		if err := s.validateAnswerByType(question, answer); err != nil {
			return err
		}
	}

	// A required question whose key is missing entirely never entered the
	// loop above; catch it here.
	for _, question := range questions {
		if question.Required {
			if _, present := answers[question.ID]; !present {
				return fmt.Errorf("Required question '%s' is missing", question.Title)
			}
		}
	}
	return nil
}

func (s *validationService) validateAnswerByType(question *models.Question, answer interface{}) error {
	text, isString := answer.(string)

	switch question.Type {
	case models.QuestionTypeText:
		if !isString {
			return fmt.Errorf("Answer for '%s' must be a string", question.Title)
		}
		if utf8.RuneCountInString(text) > s.maxAnswerLength {
			return fmt.Errorf("Answer for '%s' is too long", question.Title)
		}

	case models.QuestionTypeEmail:
		if !isString {
			return fmt.Errorf("Answer for '%s' must be a string", question.Title)
		}
		if !isValidEmail(text) {
			return fmt.Errorf("Answer for '%s' must be a valid email", question.Title)
		}

	case models.QuestionTypeMultipleChoice:
		if !isString {
			return fmt.Errorf("Answer for '%s' must be a string", question.Title)
		}
		if !containsOption(question.Options, text) {
			return fmt.Errorf("Answer for '%s' must be one of the provided options", question.Title)
		}

	default:
		return fmt.Errorf("Unknown question type: %s", question.Type)
	}
	return nil
}

// SanitizeQuestions returns a sanitized copy of the question set, preserving
// order.
func (s *validationService) SanitizeQuestions(questions []models.Question) []models.Question {
	sanitized := make([]models.Question, len(questions))
	for i, question := range questions {
		sanitized[i] = models.Question{
			ID:          sanitizeString(question.ID),
			Type:        question.Type,
			Title:       sanitizeString(question.Title),
			Placeholder: sanitizeString(question.Placeholder),
			Required:    question.Required,
			HelperText:  sanitizeString(question.HelperText),
		}
		if question.Options != nil {
			options := make([]string, len(question.Options))
			for j, option := range question.Options {
				options[j] = sanitizeString(option)
			}
			sanitized[i].Options = options
		}
	}
	return sanitized
}

// SanitizeAnswers returns a sanitized copy of the answer map, preserving keys.
func (s *validationService) SanitizeAnswers(answers map[string]interface{}) map[string]interface{} {
	if answers == nil {
		return nil
	}
	sanitized, _ := sanitizeValue(answers).(map[string]interface{})
	return sanitized
}

// sanitizeValue recursively sanitizes strings, slices and maps; other value
// types pass through unchanged. Idempotent.
func sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return sanitizeString(v)
	case []interface{}:
		sanitized := make([]interface{}, len(v))
		for i, item := range v {
			sanitized[i] = sanitizeValue(item)
		}
		return sanitized
	case []string:
		sanitized := make([]string, len(v))
		for i, item := range v {
			sanitized[i] = sanitizeString(item)
		}
		return sanitized
	case map[string]interface{}:
		sanitized := make(map[string]interface{}, len(v))
		for key, item := range v {
			sanitized[key] = sanitizeValue(item)
		}
		return sanitized
	default:
		return value
	}
}

// sanitizeString trims surrounding whitespace and strips angle brackets as a
// defense against markup injection.
func sanitizeString(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, trimmed)
}

// isEmptyAnswer reports whether an answer counts as absent: nil or an empty
// string. Missing keys are handled separately by the required re-scan.
func isEmptyAnswer(answer interface{}) bool {
	if answer == nil {
		return true
	}
	text, isString := answer.(string)
	return isString && text == ""
}

// isValidEmail checks the simple local@domain.tld shape: no whitespace, a
// single '@' with non-empty sides, and a '.' inside the domain part.
func isValidEmail(email string) bool {
	if strings.ContainsFunc(email, unicode.IsSpace) {
		return false
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	local, domain := email[:at], email[at+1:]
	if strings.ContainsRune(local, '@') || strings.ContainsRune(domain, '@') {
		return false
	}
	dot := strings.LastIndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}

// containsOption checks if a choice answer matches one of the question's options.
func containsOption(options []string, answer string) bool {
	for _, option := range options {
		if option == answer {
			return true
		}
	}
	return false
}
