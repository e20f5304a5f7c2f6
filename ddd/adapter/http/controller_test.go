package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-pipeline-service/ddd/application/app"
	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/metrics"
	"media-pipeline-service/pkg/middleware"
	"media-pipeline-service/pkg/signer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingCompute struct {
	mu       sync.Mutex
	requests []*gateway.ComputeRequest
}

func (r *recordingCompute) Launch(_ context.Context, req *gateway.ComputeRequest) (*gateway.ComputeAck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return &gateway.ComputeAck{Accepted: true}, nil
}

func (r *recordingCompute) last() *gateway.ComputeRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	engine  *gin.Engine
	compute *recordingCompute
	signer  *signer.Signer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	compute := &recordingCompute{}
	p := app.NewPipeline(app.PipelineDeps{Config: config.Default(), Compute: compute, Metrics: metrics.NewCollector()})
	s := signer.New("hook-secret", "compute", time.Minute)

	engine := gin.New()
	engine.Use(middleware.RequestContextMiddleware())
	NewSystemController(p.Metrics, "/metrics", "memory").RegisterRoutes(engine)
	NewPipelineController(app.NewPublishApp(p)).RegisterRoutes(engine)
	NewWebhookController(app.NewWebhookApp(p), s).RegisterRoutes(engine)
	return &testServer{engine: engine, compute: compute, signer: s}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (s *testServer) auth(t *testing.T) map[string]string {
	t.Helper()
	token, err := s.signer.Sign("compute", "callback")
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

const courseBody = `{
  "title": "Kubernetes Basics",
  "description": "<p>Pods and services</p>",
  "category": "devops",
  "level": "beginner",
  "isFree": true,
  "learningOutcomes": ["pods", "services", "deployments", "ingress"],
  "requirements": ["linux"],
  "intendedLearners": ["developers"],
  "defaultLanguage": "en",
  "sections": [{
    "id": "s1", "title": "Intro", "position": 1,
    "lectures": [{"id": "l1", "title": "Pods", "type": "video", "position": 1, "mediaKey": "videos/k8s/pods.mp4"}]
  }]
}`

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"service":"media-pipeline-service"`)

	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublishFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPut, "/api/v1/courses/k8s", courseBody, nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, http.MethodPost, "/api/v1/courses/k8s/publish", "", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var start struct {
		Outcome      string `json:"outcome"`
		CourseStatus string `json:"courseStatus"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &start))
	assert.Equal(t, "processing", start.Outcome)

	callback := `{"correlationId":"` + s.compute.last().CorrelationID +
		`","itemKey":"videos/k8s/pods.mp4","status":"success","result":{"playableUrl":"https://cdn.test/pods.m3u8"}}`

	// 未签名的回调被拒绝
	code, _ = s.do(t, http.MethodPost, "/internal/v1/webhooks/transcode", callback, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodPost, "/internal/v1/webhooks/transcode", callback, s.auth(t))
	require.Equal(t, http.StatusOK, code, env.Message)
	var result struct {
		Counted bool   `json:"counted"`
		Advance string `json:"advance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Counted)
	assert.Equal(t, "finished", result.Advance)

	// 重复投递返回200且不计数
	code, env = s.do(t, http.MethodPost, "/internal/v1/webhooks/transcode", callback, s.auth(t))
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Counted)

	code, env = s.do(t, http.MethodGet, "/api/v1/courses/k8s/pipelines/transcode", "", nil)
	require.Equal(t, http.StatusOK, code)
	var status struct {
		CourseStatus string `json:"courseStatus"`
		Done         bool   `json:"done"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "published", status.CourseStatus)
	assert.True(t, status.Done)
}

func TestHTTPErrorStatuses(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/courses/ghost/publish", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 30002, env.Code)

	code, _ = s.do(t, http.MethodPut, "/api/v1/courses/empty", `{}`, nil)
	require.Equal(t, http.StatusOK, code)
	code, env = s.do(t, http.MethodPost, "/api/v1/courses/empty/publish", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, string(env.Data), "title is required")

	code, _ = s.do(t, http.MethodGet, "/api/v1/courses/empty/pipelines/thumbnail", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPut, "/api/v1/courses/bad", `{"sections":[{"title":"no id"}]}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/internal/v1/webhooks/captions",
		`{"correlationId":"missing","itemKey":"k","status":"success"}`, s.auth(t))
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPost, "/internal/v1/webhooks/captions", `not json`, s.auth(t))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/batches/missing/abandon", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
