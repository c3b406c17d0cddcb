package predict

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/classifier"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/codec"
)

// Adapter runs the classifier on a single FeatureVector and names the result.
type Adapter struct {
	codec      *codec.Codec
	classifier classifier.Classifier
}

// NewAdapter returns an Adapter over clf whose outputs decode through c.
func NewAdapter(c *codec.Codec, clf classifier.Classifier) *Adapter {
	return &Adapter{codec: c, classifier: clf}
}

// Predict returns the algorithm name for fv. Any classifier failure, a panic
// inside the classifier included, comes back as a KindInferenceFailure Error.
func (a *Adapter) Predict(ctx context.Context, fv FeatureVector) (algorithm string, err error) {
	defer func() {
		if r := recover(); r != nil {
			algorithm = ""
			err = &Error{Kind: KindInferenceFailure, Err: fmt.Errorf("classifier panic: %v", r)}
		}
	}()

	row := make([]int, len(fv))
	copy(row, fv[:])

	out, err := a.classifier.Predict(ctx, [][]int{row})
	if err != nil {
		return "", &Error{Kind: KindInferenceFailure, Err: err}
	}
	if len(out) == 0 {
		return "", &Error{Kind: KindInferenceFailure, Err: errors.New("classifier returned no prediction")}
	}

	name, err := a.codec.DecodeAlgorithm(out[0])
	if err != nil {
		return "", &Error{Kind: KindInferenceFailure, Err: err}
	}
	return name, nil
}
