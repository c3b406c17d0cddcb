package predict

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/codec"
)

// Request is a decoded /predict body. Keys other than the seven feature
// fields (sensor_id and the like) are carried along untouched.
type Request map[string]any

// FeatureVector holds one code per feature column, in model order. Its
// fixed length means a vector can never be short a column.
type FeatureVector [codec.NumFeatures]int

// Validator turns a Request into a FeatureVector or reports everything that
// is wrong with it at once.
type Validator struct {
	codec    *codec.Codec
	validate *validator.Validate
	rules    map[string]any
}

// NewValidator returns a Validator encoding against c.
func NewValidator(c *codec.Codec) *Validator {
	rules := make(map[string]any, codec.NumFeatures)
	for _, col := range codec.FeatureColumns {
		rules[col.Field] = presentTag
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = validate.RegisterValidation(presentTag, isPresent)
	return &Validator{
		codec:    c,
		validate: validate,
		rules:    rules,
	}
}

// presentTag fails only for an absent key or a JSON null. Zero values such
// as false, 0 and "" are present and left to category encoding.
const presentTag = "present"

// isPresent runs for non-nil values only; the validator reports a nil
// interface as a failure of the tag before calling it.
func isPresent(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Invalid:
		return false
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
		return !f.IsNil()
	}
	return true
}

// Validate checks presence of all seven fields, then encodes each one.
// Missing fields are reported before unknown categories, and each report
// lists every offending field rather than the first.
func (v *Validator) Validate(req Request) (FeatureVector, error) {
	var fv FeatureVector
	if len(req) == 0 {
		return fv, &Error{Kind: KindMalformedRequest}
	}

	if errs := v.validate.ValidateMap(req, v.rules); len(errs) > 0 {
		var missing []string
		for _, col := range codec.FeatureColumns {
			if _, bad := errs[col.Field]; bad {
				missing = append(missing, col.Field)
			}
		}
		return fv, &Error{Kind: KindMissingField, Fields: missing}
	}

	var (
		invalid []string
		details []string
	)
	for i, col := range codec.FeatureColumns {
		raw := req[col.Field]
		s, isString := raw.(string)
		code, ok := 0, false
		if isString {
			code, ok = v.codec.Encode(col.Name, s)
		}
		if !ok {
			invalid = append(invalid, col.Field)
			details = append(details, describe(col.Field, raw))
			continue
		}
		fv[i] = code
	}
	if len(invalid) > 0 {
		return fv, &Error{
			Kind:   KindUnknownCategory,
			Fields: invalid,
			Detail: "Invalid values for: " + strings.Join(details, ", "),
		}
	}
	return fv, nil
}

func describe(field string, raw any) string {
	if s, ok := raw.(string); ok {
		return fmt.Sprintf("%s=%q", field, s)
	}
	return fmt.Sprintf("%s=%v (not a string)", field, raw)
}
