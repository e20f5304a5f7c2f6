package resource

import (
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/kafka"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/manager"
)

type KafkaResource struct {
	opened bool
}

type KafkaResourcePlugin struct{}

func (p *KafkaResourcePlugin) Name() string { return "kafka" }

func (p *KafkaResourcePlugin) MustCreateResource() manager.Resource { return &KafkaResource{} }

func (r *KafkaResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil || !cfg.Kafka.Enabled {
		logger.Info("Kafka disabled, pipeline events are logged only")
		return
	}
	kafka.DefaultClient().MustOpen()
	for _, topic := range []string{cfg.Kafka.Topics.PublishRequests, cfg.Kafka.Topics.PipelineEvents} {
		if err := kafka.DefaultClient().EnsureTopic(topic, 3, 1); err != nil {
			logger.Warnf("Ensure kafka topic failed topic=%s error=%v", topic, err)
		}
	}
	r.opened = true
}

func (r *KafkaResource) Close() {
	if r.opened {
		kafka.DefaultClient().Close()
	}
}
