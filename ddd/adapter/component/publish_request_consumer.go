package component

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	appsvc "media-pipeline-service/ddd/application/app"
	"media-pipeline-service/ddd/application/cqe"
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/errno"
	pkgkafka "media-pipeline-service/pkg/kafka"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/manager"
)

const consumerName = "publishRequestConsumer"

// MessageReader kafka-go Reader的子集
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// PublishRequest course.publish.requests 消息体
type PublishRequest struct {
	CourseID    string `json:"courseId"`
	RequestedBy string `json:"requestedBy"`
}

type PublishRequestConsumerPlugin struct{}

func (p *PublishRequestConsumerPlugin) Name() string { return consumerName }

// MustCreateComponent kafka未启用时返回nil, manager跳过
func (p *PublishRequestConsumerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := config.GetGlobalConfig()
	if deps != nil && deps.Config != nil {
		cfg = deps.Config
	}
	if cfg == nil || !cfg.Kafka.Enabled {
		return nil
	}
	var app appsvc.PublishApp
	if deps != nil {
		if v, ok := deps.PublishApp.(appsvc.PublishApp); ok {
			app = v
		}
	}
	if app == nil {
		app = appsvc.DefaultPublishApp()
	}
	topic := cfg.Kafka.Topics.PublishRequests
	reader := pkgkafka.DefaultClient().Reader(topic, cfg.Kafka.GroupID)
	return NewPublishRequestConsumer(app, reader, topic, cfg.Kafka)
}

type publishRequestConsumer struct {
	app    appsvc.PublishApp
	reader MessageReader
	topic  string

	commitOnDecodeError  bool
	commitOnProcessError bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPublishRequestConsumer(app appsvc.PublishApp, reader MessageReader, topic string, cfg config.KafkaConfig) manager.Component {
	return &publishRequestConsumer{
		app:                  app,
		reader:               reader,
		topic:                topic,
		commitOnDecodeError:  cfg.CommitOnDecodeError,
		commitOnProcessError: cfg.CommitOnProcessError,
	}
}

func (c *publishRequestConsumer) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Infof("Kafka consumer started topic=%s", c.topic)
		for {
			msg, err := c.reader.FetchMessage(c.ctx)
			if err != nil {
				if c.ctx.Err() != nil {
					return
				}
				if errors.Is(err, io.EOF) {
					logger.Debug("Kafka reader EOF")
				} else {
					logger.Warnf("Kafka read error topic=%s error=%v", c.topic, err)
				}
				select {
				case <-c.ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}
			if c.handle(c.ctx, msg) {
				if err := c.reader.CommitMessages(c.ctx, msg); err != nil && c.ctx.Err() == nil {
					logger.Warnf("Kafka commit failed topic=%s offset=%d error=%v", c.topic, msg.Offset, err)
				}
			}
		}
	}()
	return nil
}

// handle 返回是否提交offset
func (c *publishRequestConsumer) handle(ctx context.Context, msg kafkago.Message) bool {
	var req PublishRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		logger.Warnf("Kafka message unmarshal error topic=%s offset=%d error=%v", c.topic, msg.Offset, err)
		return c.commitOnDecodeError
	}
	logger.Infof("Publish request received course_id=%s requested_by=%s offset=%d", req.CourseID, req.RequestedBy, msg.Offset)

	result, err := c.app.Publish(ctx, &cqe.PublishCourseCmd{CourseID: req.CourseID, RequestedBy: req.RequestedBy})
	if err != nil {
		e, _ := errno.Decode(err)
		if e.HTTPStatus < 500 {
			// 校验失败, 课程不存在这类结果重放也不会变化
			logger.Warnf("Publish request rejected course_id=%s code=%d error=%v", req.CourseID, e.Code, err)
			return true
		}
		logger.Errorf("Publish request failed course_id=%s error=%v", req.CourseID, err)
		return c.commitOnProcessError
	}
	logger.Infof("Publish request handled course_id=%s outcome=%s batches=%d", req.CourseID, result.Outcome, len(result.Batches))
	return true
}

func (c *publishRequestConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}

func (c *publishRequestConsumer) GetName() string { return consumerName }
