package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/api"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/artifact"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/predict"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	b, err := artifact.Load("../../model/encryption_model.json", "../../model/label_encoders.json", logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := api.NewRouter(ctx, api.Options{
		Bundle:       b,
		Service:      predict.NewService(b.Codec, b.Classifier, logger),
		Logger:       logger,
		CORSOrigins:  []string{"https://dashboard.example"},
		RateLimitRPS: 100,
	})
	return router
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newRouter(t))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_endToEnd(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	body := `{"file_size":"Small","data_type":"Text","required_speed":"Low","security_level":"High","real_time":"No","connectivity":"WiFi","cost_sensitivity":"Low"}`
	resp, err = http.Post(srv.URL+"/predict", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "RSA", out["predicted_algorithm"])

	resp, err = http.Get(srv.URL + "/model")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `predictor_predictions_total{algorithm="RSA"}`)
	assert.Contains(t, string(raw), `predictor_requests_total{method="POST",path="/predict",status="200"}`)
}

func TestRouter_unknownRouteIs404(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/admin")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_corsPreflight(t *testing.T) {
	srv := newServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/predict", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "https://dashboard.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_oversizedBodyIsMalformed(t *testing.T) {
	router := newRouter(t)

	big := `{"sensor_id":"` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No data provided", out["error"])
}
