package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/chronicrisk/internal/config"
)

const shippedModels = "../../models"

func testConfig(modelDir string) *config.Config {
	return &config.Config{
		Port:          "0",
		GinMode:       gin.TestMode,
		ModelDir:      modelDir,
		LogLevel:      "info",
		LogFormat:     "json",
		AppName:       "chronic-risk",
		CORSOrigins:   []string{"*"},
		MaxBodyBytes:  1 << 20,
		RiskThreshold: 75,
	}
}

func TestCheckModelsShippedArtifacts(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, checkModels(&out, shippedModels))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	for _, name := range []string{"breast_cancer", "diabetes", "heart_disease", "kidney_disease"} {
		assert.Contains(t, out.String(), name)
	}
	assert.Contains(t, out.String(), "1 features")
	assert.NotContains(t, out.String(), "failed")
}

func TestCheckModelsReportsMissingArtifacts(t *testing.T) {
	var out bytes.Buffer
	err := checkModels(&out, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 model artifact(s) failed")
	assert.Contains(t, out.String(), "failed")
}

func TestModelsCheckCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"models", "check", "--dir", shippedModels})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "kidney_disease")
}

func TestBuildServerWithShippedModels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router, loader, err := buildServer(testConfig(shippedModels), prometheus.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, loader.LoadAll())

	t.Run("readyz", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("low risk", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/breast_cancer", strings.NewReader(`{"fields": {"Age": 40}}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"score":21`)
		assert.Contains(t, w.Body.String(), `"level":"LOW_TO_MEDIUM"`)
	})

	t.Run("high risk", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/breast_cancer", strings.NewReader(`{"fields": {"Age": 100}}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"score":95`)
		assert.Contains(t, w.Body.String(), `"level":"HIGH"`)
	})
}

func TestBuildServerReadyzWithoutModels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router, _, err := buildServer(testConfig(t.TempDir()), prometheus.NewRegistry())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}
