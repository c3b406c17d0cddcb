// Package predict validates prediction requests and runs them through the
// classifier.
//
// A request moves received -> validated -> predicted. Each step either
// hands its output to the next or returns an *Error whose Kind tells the
// caller how to respond; nothing here retries.
package predict

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/classifier"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/codec"
)

// Result is a successful prediction.
type Result struct {
	Algorithm string
	// Input is the request exactly as received.
	Input Request
}

// Service wires a Validator to an Adapter. It holds only read-only state
// and is safe for concurrent use.
type Service struct {
	validator *Validator
	adapter   *Adapter
	logger    *zap.Logger
}

// NewService creates a Service over the loaded codec and classifier.
func NewService(c *codec.Codec, clf classifier.Classifier, logger *zap.Logger) *Service {
	return &Service{
		validator: NewValidator(c),
		adapter:   NewAdapter(c, clf),
		logger:    logger,
	}
}

// Predict validates req and, if it is complete and every category is known,
// returns the recommended algorithm.
func (s *Service) Predict(ctx context.Context, req Request) (*Result, error) {
	fv, err := s.validator.Validate(req)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			s.logger.Info("prediction request rejected",
				zap.Stringer("kind", perr.Kind),
				zap.Strings("fields", perr.Fields),
				zap.String("error", perr.Error()),
			)
		}
		return nil, err
	}

	algorithm, err := s.adapter.Predict(ctx, fv)
	if err != nil {
		s.logger.Error("prediction failed",
			zap.Ints("features", fv[:]),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Debug("prediction",
		zap.Ints("features", fv[:]),
		zap.String("algorithm", algorithm),
	)
	return &Result{Algorithm: algorithm, Input: req}, nil
}
