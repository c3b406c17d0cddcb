package predict

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/classifier"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/codec"
)

// ── Fixtures ─────────────────────────────────────────────────────────────

func testCodec(t *testing.T) *codec.Codec {
	t.Helper()
	c, err := codec.New([]codec.Encoder{
		{Column: "File Size", Classes: []string{"Large", "Medium", "Small"}},
		{Column: "Data Type", Classes: []string{"Boolean", "Image", "Numerical", "Text", "Video"}},
		{Column: "Required Speed", Classes: []string{"High", "Low", "Medium"}},
		{Column: "Required Security Level", Classes: []string{"High", "Low", "Medium"}},
		{Column: "Real-Time Requirement", Classes: []string{"No", "Yes"}},
		{Column: "Connectivity Type", Classes: []string{"Cellular", "Ethernet", "WiFi"}},
		{Column: "Encryption Cost Sensitivity", Classes: []string{"High", "Low", "Medium"}},
		{Column: "Encryption Algorithm", Classes: []string{"AES", "Blowfish", "ChaCha20", "ECC", "RSA"}},
	})
	require.NoError(t, err)
	return c
}

func validRequest() Request {
	return Request{
		"file_size":        "Small",
		"data_type":        "Text",
		"required_speed":   "Low",
		"security_level":   "High",
		"real_time":        "No",
		"connectivity":     "WiFi",
		"cost_sensitivity": "Low",
	}
}

// stubClassifier records the rows it sees and returns a canned answer.
type stubClassifier struct {
	out   []int
	err   error
	panic any
	rows  [][]int
}

func (s *stubClassifier) Predict(_ context.Context, rows [][]int) ([]int, error) {
	s.rows = append(s.rows, rows...)
	if s.panic != nil {
		panic(s.panic)
	}
	return s.out, s.err
}

var _ classifier.Classifier = (*stubClassifier)(nil)

func requireKind(t *testing.T, err error, want Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var perr *Error
	require.True(t, errors.As(err, &perr), "want *predict.Error, got %T", err)
	require.Equal(t, want, perr.Kind, perr.Error())
	return perr
}

// ── Validator ────────────────────────────────────────────────────────────

func TestValidate_encodesInModelOrder(t *testing.T) {
	v := NewValidator(testCodec(t))

	fv, err := v.Validate(validRequest())
	require.NoError(t, err)
	assert.Equal(t, FeatureVector{2, 3, 1, 0, 0, 2, 1}, fv)
}

func TestValidate_ignoresExtraFields(t *testing.T) {
	v := NewValidator(testCodec(t))
	req := validRequest()
	req["sensor_id"] = 4.0
	req["firmware"] = "1.2.3"

	fv, err := v.Validate(req)
	require.NoError(t, err)
	assert.Equal(t, FeatureVector{2, 3, 1, 0, 0, 2, 1}, fv)
}

func TestValidate_emptyRequestIsMalformed(t *testing.T) {
	v := NewValidator(testCodec(t))

	for _, req := range []Request{nil, {}} {
		_, err := v.Validate(req)
		perr := requireKind(t, err, KindMalformedRequest)
		assert.Equal(t, "No data provided", perr.Error())
	}
}

func TestValidate_reportsEveryMissingField(t *testing.T) {
	v := NewValidator(testCodec(t))

	tests := []struct {
		name    string
		drop    []string
		nullify []string
		want    string
	}{
		{
			name: "single",
			drop: []string{"security_level"},
			want: "Missing parameters: security_level",
		},
		{
			name: "several, reported in feature order",
			drop: []string{"cost_sensitivity", "file_size", "real_time"},
			want: "Missing parameters: file_size, real_time, cost_sensitivity",
		},
		{
			name:    "null counts as missing",
			nullify: []string{"data_type"},
			want:    "Missing parameters: data_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			for _, f := range tt.drop {
				delete(req, f)
			}
			for _, f := range tt.nullify {
				req[f] = nil
			}
			_, err := v.Validate(req)
			perr := requireKind(t, err, KindMissingField)
			assert.Equal(t, tt.want, perr.Error())
		})
	}
}

func TestValidate_zeroValuesArePresent(t *testing.T) {
	v := NewValidator(testCodec(t))

	tests := []struct {
		name  string
		field string
		value any
		want  string
	}{
		{name: "false", field: "real_time", value: false, want: "real_time=false (not a string)"},
		{name: "zero", field: "cost_sensitivity", value: 0.0, want: "cost_sensitivity=0 (not a string)"},
		{name: "empty string", field: "connectivity", value: "", want: `connectivity=""`},
		{name: "empty object", field: "data_type", value: map[string]any{}, want: "data_type=map[] (not a string)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req[tt.field] = tt.value

			_, err := v.Validate(req)
			perr := requireKind(t, err, KindUnknownCategory)
			assert.Equal(t, []string{tt.field}, perr.Fields)
			assert.Equal(t, "Invalid values for: "+tt.want, perr.Error())
		})
	}
}

func TestValidate_missingBeatsInvalid(t *testing.T) {
	v := NewValidator(testCodec(t))
	req := validRequest()
	delete(req, "real_time")
	req["data_type"] = "Holographic"

	_, err := v.Validate(req)
	perr := requireKind(t, err, KindMissingField)
	assert.Equal(t, []string{"real_time"}, perr.Fields)
}

func TestValidate_reportsEveryUnknownCategory(t *testing.T) {
	v := NewValidator(testCodec(t))
	req := validRequest()
	req["data_type"] = "Holographic"
	req["file_size"] = "Huge"
	req["real_time"] = true

	_, err := v.Validate(req)
	perr := requireKind(t, err, KindUnknownCategory)
	assert.Equal(t, []string{"file_size", "data_type", "real_time"}, perr.Fields)
	assert.Equal(t,
		`Invalid values for: file_size="Huge", data_type="Holographic", real_time=true (not a string)`,
		perr.Error())
	assert.True(t, perr.Client())
}

// ── Adapter ──────────────────────────────────────────────────────────────

func TestAdapter_Predict(t *testing.T) {
	clf := &stubClassifier{out: []int{4}}
	a := NewAdapter(testCodec(t), clf)

	got, err := a.Predict(context.Background(), FeatureVector{2, 3, 1, 0, 0, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, "RSA", got)
	require.Len(t, clf.rows, 1, "single-sample prediction")
	assert.Equal(t, []int{2, 3, 1, 0, 0, 2, 1}, clf.rows[0])
}

func TestAdapter_Predict_failures(t *testing.T) {
	boom := errors.New("model exploded")

	tests := []struct {
		name   string
		clf    *stubClassifier
		errMsg string
	}{
		{name: "classifier error", clf: &stubClassifier{err: boom}, errMsg: "Prediction error: model exploded"},
		{name: "no output", clf: &stubClassifier{out: []int{}}, errMsg: "no prediction"},
		{name: "index out of range", clf: &stubClassifier{out: []int{7}}, errMsg: "outside the trained label set"},
		{name: "negative index", clf: &stubClassifier{out: []int{-1}}, errMsg: "outside the trained label set"},
		{name: "panic", clf: &stubClassifier{panic: "index out of range [9]"}, errMsg: "classifier panic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(testCodec(t), tt.clf)
			got, err := a.Predict(context.Background(), FeatureVector{})
			perr := requireKind(t, err, KindInferenceFailure)
			assert.Empty(t, got)
			assert.Contains(t, perr.Error(), tt.errMsg)
			assert.False(t, perr.Client())
		})
	}
}

func TestAdapter_Predict_unwrapsCause(t *testing.T) {
	a := NewAdapter(testCodec(t), &stubClassifier{out: []int{42}})
	_, err := a.Predict(context.Background(), FeatureVector{})
	assert.ErrorIs(t, err, codec.ErrUnknownAlgorithm)
}

// ── Service ──────────────────────────────────────────────────────────────

func TestService_Predict(t *testing.T) {
	clf := &stubClassifier{out: []int{0}}
	svc := NewService(testCodec(t), clf, zap.NewNop())
	req := validRequest()
	req["sensor_id"] = 3.0

	res, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "AES", res.Algorithm)
	assert.Equal(t, req, res.Input)
}

func TestService_Predict_neverCallsClassifierOnInvalidInput(t *testing.T) {
	clf := &stubClassifier{out: []int{0}}
	svc := NewService(testCodec(t), clf, zap.NewNop())
	req := validRequest()
	req["connectivity"] = "Bluetooth"

	_, err := svc.Predict(context.Background(), req)
	requireKind(t, err, KindUnknownCategory)
	assert.Empty(t, clf.rows)
}
