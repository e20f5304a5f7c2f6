package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/signer"
)

var ErrEndpointNotConfigured = errors.New("compute endpoint not configured")

const maxResponseBody = 1 << 20

// HTTPComputeGateway 以HTTP POST {endpoint}/{kind} 派发批次
type HTTPComputeGateway struct {
	endpoint string
	client   *http.Client
	signer   *signer.Signer
}

func NewHTTPComputeGateway(endpoint string, timeout time.Duration, s *signer.Signer) gateway.ComputeGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPComputeGateway{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		signer:   s,
	}
}

func (g *HTTPComputeGateway) Launch(ctx context.Context, req *gateway.ComputeRequest) (*gateway.ComputeAck, error) {
	if g.endpoint == "" {
		return nil, ErrEndpointNotConfigured
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode compute request: %w", err)
	}
	url := g.endpoint + "/" + req.Kind.String()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if reqID := logger.RequestIDFromContext(ctx); reqID != "" {
		httpReq.Header.Set("X-Request-ID", reqID)
	}
	if g.signer.Enabled() {
		token, err := g.signer.Sign(req.CorrelationID, req.Kind.String())
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call compute service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read compute response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("compute service returned %d: %s", resp.StatusCode, truncate(string(raw), 256))
	}

	var ack gateway.ComputeAck
	if err := json.Unmarshal(raw, &ack); err != nil {
		return nil, fmt.Errorf("unexpected compute response: %w", err)
	}
	if !ack.Accepted {
		return nil, fmt.Errorf("compute service did not accept batch %s", req.CorrelationID)
	}
	logger.Debugf("Compute accepted batch correlation_id=%s job_id=%s", req.CorrelationID, ack.JobID)
	return &ack, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
