// Package classifier evaluates the pre-trained encryption model.
//
// The model is opaque to the rest of the service: callers hand it rows of
// encoded feature codes and get back one class index per row. What the class
// index means is the codec's business, not the classifier's.
package classifier

import (
	"context"
	"errors"
	"fmt"
)

// Model kinds understood by FromSpec.
const (
	KindDecisionTree = "decision_tree"
	KindRandomForest = "random_forest"
)

// ErrFeatureCount is returned when a row's width does not match the model.
var ErrFeatureCount = errors.New("feature count mismatch")

// Classifier predicts a class index for each row of encoded features.
type Classifier interface {
	Predict(ctx context.Context, rows [][]int) ([]int, error)
}

// Spec is the serialized form of a model artifact.
type Spec struct {
	Kind         string   `json:"kind"                    yaml:"kind"`
	NFeatures    int      `json:"n_features"              yaml:"n_features"`
	NClasses     int      `json:"n_classes,omitempty"     yaml:"n_classes,omitempty"`
	FeatureNames []string `json:"feature_names,omitempty" yaml:"feature_names,omitempty"`
	Nodes        []Node   `json:"nodes,omitempty"         yaml:"nodes,omitempty"`
	Trees        []Spec   `json:"trees,omitempty"         yaml:"trees,omitempty"`
}

// FromSpec builds a Classifier from a decoded artifact.
func FromSpec(spec *Spec) (Classifier, error) {
	switch spec.Kind {
	case KindDecisionTree, "":
		return NewDecisionTree(spec.NFeatures, spec.Nodes)
	case KindRandomForest:
		if len(spec.Trees) == 0 {
			return nil, errors.New("random_forest: no trees")
		}
		trees := make([]*DecisionTree, 0, len(spec.Trees))
		for i := range spec.Trees {
			sub := spec.Trees[i]
			if sub.NFeatures == 0 {
				sub.NFeatures = spec.NFeatures
			}
			if sub.NFeatures != spec.NFeatures {
				return nil, fmt.Errorf("random_forest: tree %d has %d features, forest has %d", i, sub.NFeatures, spec.NFeatures)
			}
			t, err := NewDecisionTree(sub.NFeatures, sub.Nodes)
			if err != nil {
				return nil, fmt.Errorf("random_forest: tree %d: %w", i, err)
			}
			trees = append(trees, t)
		}
		return NewRandomForest(trees)
	default:
		return nil, fmt.Errorf("unsupported model kind %q", spec.Kind)
	}
}
