package tokens

import "fmt"

// charsPerToken is the assumed characters-per-token ratio for English text.
const charsPerToken = 4

// Operation-specific overhead added by callers on top of the raw text
// estimate. These cover the prompt template and expected response size.
const (
	// SummarizeOverhead covers the summarization prompt/response envelope.
	SummarizeOverhead = 500

	// AnswerOverhead covers a context-answering exchange.
	AnswerOverhead = 200
)

// Estimator performs character-based token estimation with configurable
// input length ceilings.
type Estimator struct {
	maxTextLength     int
	maxQuestionLength int
}

// Config contains input length limits for the estimator.
type Config struct {
	// MaxTextLength is the maximum accepted length for general text inputs.
	MaxTextLength int

	// MaxQuestionLength is the maximum accepted length for question inputs.
	MaxQuestionLength int
}

// NewEstimator creates an estimator with the given length limits.
// Zero limits disable the corresponding length check.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{
		maxTextLength:     cfg.MaxTextLength,
		maxQuestionLength: cfg.MaxQuestionLength,
	}
}

// Estimate returns the estimated token count for text, one token per
// four characters, rounded down. Empty text estimates to zero.
func (e *Estimator) Estimate(text string) int {
	return len(text) / charsPerToken
}

// ValidateText checks general text against the configured maximum length.
func (e *Estimator) ValidateText(text string) error {
	if e.maxTextLength > 0 && len(text) > e.maxTextLength {
		return &LengthError{Kind: "text", Length: len(text), Limit: e.maxTextLength}
	}
	return nil
}

// ValidateQuestion checks a question against the configured maximum length.
func (e *Estimator) ValidateQuestion(question string) error {
	if e.maxQuestionLength > 0 && len(question) > e.maxQuestionLength {
		return &LengthError{Kind: "question", Length: len(question), Limit: e.maxQuestionLength}
	}
	return nil
}

// LengthError reports an input that exceeds its configured length ceiling.
type LengthError struct {
	// Kind is the input kind ("text" or "question").
	Kind string

	// Length is the actual input length in characters.
	Length int

	// Limit is the configured maximum length.
	Limit int
}

// Error implements the error interface.
func (e *LengthError) Error() string {
	return fmt.Sprintf("%s too long: %d characters, maximum allowed %d", e.Kind, e.Length, e.Limit)
}
