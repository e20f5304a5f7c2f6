package compute

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/signer"
)

func newRequest() *gateway.ComputeRequest {
	return &gateway.ComputeRequest{
		Kind:          vo.PipelineKindTranscode,
		CorrelationID: "batch-1",
		ItemKeys:      []string{"videos/a.mp4", "videos/b.mp4"},
		Bucket:        "course-media",
		OutputPrefix:  "hls",
		CallbackURL:   "http://pipeline/internal/v1/webhooks/transcode",
	}
}

func TestLaunchAccepted(t *testing.T) {
	s := signer.New("compute-secret", "media-pipeline-service", time.Minute)
	var got gateway.ComputeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcode", r.URL.Path)
		token, err := signer.BearerToken(r.Header.Get("Authorization"))
		require.NoError(t, err)
		claims, err := s.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "batch-1", claims.Subject)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"accepted":true,"jobId":"job-9"}`))
	}))
	defer server.Close()

	g := NewHTTPComputeGateway(server.URL+"/", time.Second, s)
	ack, err := g.Launch(context.Background(), newRequest())
	require.NoError(t, err)
	assert.Equal(t, "job-9", ack.JobID)
	assert.Equal(t, []string{"videos/a.mp4", "videos/b.mp4"}, got.ItemKeys)
	assert.Equal(t, "batch-1", got.CorrelationID)
}

func TestLaunchFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		"not accepted": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"accepted":false}`))
		},
		"bad shape": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>ok</html>`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(h)
			defer server.Close()
			_, err := NewHTTPComputeGateway(server.URL, time.Second, nil).Launch(context.Background(), newRequest())
			assert.Error(t, err)
		})
	}
}

func TestLaunchWithoutSigner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"accepted":true}`))
	}))
	defer server.Close()
	_, err := NewHTTPComputeGateway(server.URL, time.Second, signer.New("", "", 0)).Launch(context.Background(), newRequest())
	assert.NoError(t, err)
}

func TestLaunchWithoutEndpoint(t *testing.T) {
	_, err := NewHTTPComputeGateway("", 0, nil).Launch(context.Background(), newRequest())
	assert.ErrorIs(t, err, ErrEndpointNotConfigured)
}
