package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/artifact"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/codec"
)

// ColumnInfo describes one feature column and its trained categories.
type ColumnInfo struct {
	Column     string   `json:"column"`
	Field      string   `json:"field"`
	Categories []string `json:"categories"`
}

// ModelInfo is the GET /model response body.
type ModelInfo struct {
	Columns      []ColumnInfo      `json:"columns"`
	Algorithms   []string          `json:"algorithms"`
	Fingerprints map[string]string `json:"fingerprints"`
	LoadedAt     time.Time         `json:"loaded_at"`
}

// ModelHandler exposes read-only metadata about the loaded artifacts.
type ModelHandler struct {
	info   ModelInfo
	logger *zap.Logger
}

// NewModelHandler builds the metadata once from b; the bundle never changes
// after startup.
func NewModelHandler(b *artifact.Bundle, logger *zap.Logger) *ModelHandler {
	info := ModelInfo{
		Algorithms: b.Codec.Algorithms(),
		Fingerprints: map[string]string{
			"model":    b.ModelFingerprint,
			"encoders": b.EncoderFingerprint,
		},
		LoadedAt: b.LoadedAt.UTC(),
	}
	for _, col := range codec.FeatureColumns {
		info.Columns = append(info.Columns, ColumnInfo{
			Column:     col.Name,
			Field:      col.Field,
			Categories: b.Codec.Categories(col.Name),
		})
	}
	return &ModelHandler{info: info, logger: logger}
}

// Register mounts the model route on the given router group.
func (h *ModelHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/model", h.Describe)
}

// Describe handles GET /model.
func (h *ModelHandler) Describe(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}
