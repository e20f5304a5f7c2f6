package app

import (
	"context"
	"errors"
	"sync"

	"media-pipeline-service/ddd/application/cqe"
	"media-pipeline-service/ddd/application/dto"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/service"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/assert"
	"media-pipeline-service/pkg/errno"
)

var (
	singletonWebhookApp WebhookApp
	onceWebhookApp      sync.Once
)

// WebhookApp 计算服务回调入口
type WebhookApp interface {
	HandleTranscode(ctx context.Context, cmd *cqe.TranscodeCallbackCmd) (*dto.CallbackResultDTO, error)
	HandleCaption(ctx context.Context, cmd *cqe.CaptionCallbackCmd) (*dto.CallbackResultDTO, error)
}

type webhookAppImpl struct {
	ingestor service.WebhookIngestor
}

func DefaultWebhookApp() WebhookApp {
	assert.NotCircular()
	onceWebhookApp.Do(func() {
		singletonWebhookApp = NewWebhookApp(DefaultPipeline())
	})
	assert.NotNil(singletonWebhookApp)
	return singletonWebhookApp
}

func NewWebhookApp(p *Pipeline) WebhookApp {
	return &webhookAppImpl{ingestor: p.Orchestrator.Ingestor()}
}

func (a *webhookAppImpl) HandleTranscode(ctx context.Context, cmd *cqe.TranscodeCallbackCmd) (*dto.CallbackResultDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	cb := &service.ItemCallback{
		Kind:          vo.PipelineKindTranscode,
		CorrelationID: cmd.CorrelationID,
		ItemKey:       cmd.ItemKey,
		Status:        cmd.Outcome(),
		ErrorMessage:  cmd.ErrorMessage,
	}
	if cmd.Result != nil {
		cb.PlayableURL = cmd.Result.PlayableURL
		cb.StorageKey = cmd.Result.StorageKey
	}
	return a.ingest(ctx, cb)
}

func (a *webhookAppImpl) HandleCaption(ctx context.Context, cmd *cqe.CaptionCallbackCmd) (*dto.CallbackResultDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return a.ingest(ctx, &service.ItemCallback{
		Kind:          vo.PipelineKindCaption,
		CorrelationID: cmd.CorrelationID,
		ItemKey:       cmd.ItemKey,
		Status:        cmd.Outcome(),
		Captions:      cmd.Captions(),
		ErrorMessage:  cmd.ErrorMessage,
	})
}

func (a *webhookAppImpl) ingest(ctx context.Context, cb *service.ItemCallback) (*dto.CallbackResultDTO, error) {
	result, err := a.ingestor.Ingest(ctx, cb)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrBatchNotFound):
			return nil, errno.NewBizError(errno.ErrBatchNotFound, err)
		case errors.Is(err, service.ErrKindMismatch):
			return nil, errno.NewBizError(errno.ErrCallbackKindMismatch, err)
		}
		return nil, errno.NewBizError(errno.ErrInternalServer, err)
	}
	advance := ""
	if result.Advancement != nil {
		advance = string(result.Advancement.Action)
	}
	return dto.NewCallbackResultDTO(result.Record, advance), nil
}
