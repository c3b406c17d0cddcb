package predict

import "strings"

// Kind classifies a prediction failure. The HTTP layer maps kinds to status
// codes; nothing below it knows about HTTP.
type Kind int

const (
	// KindMalformedRequest: body absent or not a JSON object.
	KindMalformedRequest Kind = iota + 1
	// KindMissingField: one or more required fields absent.
	KindMissingField
	// KindUnknownCategory: a supplied value is not a trained category.
	KindUnknownCategory
	// KindInferenceFailure: the classifier failed or produced an unknown class.
	KindInferenceFailure
)

func (k Kind) String() string {
	switch k {
	case KindMalformedRequest:
		return "malformed_request"
	case KindMissingField:
		return "missing_field"
	case KindUnknownCategory:
		return "unknown_category"
	case KindInferenceFailure:
		return "inference_failure"
	default:
		return "unknown"
	}
}

// Error is the result type of every failed prediction step.
type Error struct {
	Kind Kind
	// Fields names every offending request field, in feature order.
	Fields []string
	// Detail is the human-readable description of what was wrong.
	Detail string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMalformedRequest:
		if e.Detail != "" {
			return e.Detail
		}
		return "No data provided"
	case KindMissingField:
		return "Missing parameters: " + strings.Join(e.Fields, ", ")
	case KindUnknownCategory:
		return e.Detail
	case KindInferenceFailure:
		if e.Err != nil {
			return "Prediction error: " + e.Err.Error()
		}
		return "Prediction error: " + e.Detail
	default:
		return e.Detail
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Client reports whether the failure is the caller's fault.
func (e *Error) Client() bool {
	return e.Kind != KindInferenceFailure
}
