package kafka

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
)

// Client 共享的kafka连接信息与按topic缓存的writer
type Client struct {
	brokers  []string
	clientID string
	groupID  string
	dialer   *kafka.Dialer
	writers  sync.Map // topic -> *kafka.Writer
}

var (
	once      sync.Once
	singleton *Client
)

func DefaultClient() *Client {
	once.Do(func() {
		singleton = &Client{}
	})
	return singleton
}

// NewClient 不依赖全局配置, 供CLI使用
func NewClient(cfg config.KafkaConfig) *Client {
	c := &Client{}
	c.open(cfg)
	return c
}

func (c *Client) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before Kafka client")
	}
	c.open(cfg.Kafka)
}

func (c *Client) open(cfg config.KafkaConfig) {
	c.brokers = cfg.BootstrapServers
	c.clientID = cfg.ClientID
	c.groupID = cfg.GroupID
	c.dialer = &kafka.Dialer{
		Timeout:  10 * time.Second,
		ClientID: c.clientID,
	}
	logger.Infof("Kafka client opened brokers=%v client_id=%s", c.brokers, c.clientID)
}

// GroupID 默认消费组
func (c *Client) GroupID() string { return c.groupID }

func (c *Client) Close() {
	c.writers.Range(func(key, value interface{}) bool {
		if w, ok := value.(*kafka.Writer); ok {
			_ = w.Close()
		}
		c.writers.Delete(key)
		return true
	})
}

func (c *Client) Writer(topic string) *kafka.Writer {
	if v, ok := c.writers.Load(topic); ok {
		return v.(*kafka.Writer)
	}
	w := &kafka.Writer{
		Addr: kafka.TCP(c.brokers...),
		// 同一课程的事件进入同一分区, 保持顺序
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	actual, loaded := c.writers.LoadOrStore(topic, w)
	if loaded {
		_ = w.Close()
	}
	return actual.(*kafka.Writer)
}

func (c *Client) Produce(ctx context.Context, topic string, key, value []byte) error {
	w := c.Writer(topic)
	msg := kafka.Message{Key: key, Value: value, Time: time.Now()}
	return w.WriteMessages(ctx, msg)
}

func (c *Client) Reader(topic, groupID string) *kafka.Reader {
	if groupID == "" {
		groupID = c.groupID
	}
	logger.Infof("Kafka reader created topic=%s group=%s brokers=%v", topic, groupID, c.brokers)
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.brokers,
		GroupID:  groupID,
		Topic:    topic,
		Dialer:   c.dialer,
		MinBytes: 1,
		MaxBytes: 10 << 20,
		// FetchMessage + CommitMessages同步提交, 处理成功后才提交offset
		CommitInterval: 0,
	})
}

// EnsureTopic 不存在时创建topic
func (c *Client) EnsureTopic(topic string, numPartitions, replicationFactor int) error {
	if len(c.brokers) == 0 || topic == "" {
		return nil
	}
	conn, err := kafka.Dial("tcp", c.brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	cc, err := kafka.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer cc.Close()
	return cc.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	})
}
