package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/predict"
)

// Predictor is the subset of *predict.Service the HTTP layer needs.
type Predictor interface {
	Predict(ctx context.Context, req predict.Request) (*predict.Result, error)
}

// PredictHandler serves the health and prediction endpoints.
type PredictHandler struct {
	svc    Predictor
	loaded bool
	logger *zap.Logger
}

// NewPredictHandler creates a new PredictHandler. loaded is reported by
// /health as model_loaded.
func NewPredictHandler(svc Predictor, loaded bool, logger *zap.Logger) *PredictHandler {
	return &PredictHandler{svc: svc, loaded: loaded, logger: logger}
}

// Register mounts the prediction routes on the given router group.
func (h *PredictHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.POST("/predict", h.Predict)
}

// Health handles GET /health. It never inspects request state.
func (h *PredictHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"model_loaded": h.loaded,
	})
}

// Predict handles POST /predict.
func (h *PredictHandler) Predict(c *gin.Context) {
	// Numbers stay json.Number so input_parameters echoes them digit for digit.
	var req predict.Request
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		h.logger.Info("prediction request body not decodable", zap.Error(err))
		h.fail(c, &predict.Error{Kind: predict.KindMalformedRequest, Err: err})
		return
	}

	res, err := h.svc.Predict(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	RecordPrediction(res.Algorithm)
	c.JSON(http.StatusOK, gin.H{
		"predicted_algorithm": res.Algorithm,
		"input_parameters":    res.Input,
	})
}

// fail writes the error response for err. Domain errors map by kind; anything
// else is an unexpected server error.
func (h *PredictHandler) fail(c *gin.Context, err error) {
	var perr *predict.Error
	if !errors.As(err, &perr) {
		h.logger.Error("unexpected prediction error", zap.Error(err))
		RecordPredictionError("unexpected")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error: " + err.Error()})
		return
	}

	RecordPredictionError(perr.Kind.String())
	status := http.StatusBadRequest
	if !perr.Client() {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": perr.Error()})
}
