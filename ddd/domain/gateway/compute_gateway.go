package gateway

import (
	"context"

	"media-pipeline-service/ddd/domain/vo"
)

// ComputeRequest 派发给外部计算服务的批次
type ComputeRequest struct {
	Kind            vo.PipelineKind `json:"kind"`
	CorrelationID   string          `json:"correlationId"`
	ItemKeys        []string        `json:"itemKeys"`
	Bucket          string          `json:"bucket"`
	OutputPrefix    string          `json:"outputPrefix"`
	CallbackURL     string          `json:"callbackUrl"`
	SourceLanguage  string          `json:"sourceLanguage,omitempty"`
	TargetLanguages []string        `json:"targetLanguages,omitempty"`
}

// ComputeAck 计算服务受理回执
type ComputeAck struct {
	Accepted bool   `json:"accepted"`
	JobID    string `json:"jobId,omitempty"`
}

// ComputeGateway 外部无服务器计算服务, 同步受理, 结果通过回调异步返回
type ComputeGateway interface {
	// Launch 只有收到Accepted=true的2xx回执时返回nil
	Launch(ctx context.Context, req *ComputeRequest) (*ComputeAck, error)
}
