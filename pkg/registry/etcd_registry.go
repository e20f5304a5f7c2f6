package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
)

const keyPrefix = "/services/"

// Instance 注册到etcd的实例信息
type Instance struct {
	ID           string    `json:"id"`
	HTTPAddr     string    `json:"httpAddr"`
	GRPCAddr     string    `json:"grpcAddr,omitempty"`
	Version      string    `json:"version,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// ServiceRegistry 基于租约的服务注册
type ServiceRegistry struct {
	client      *clientv3.Client
	serviceName string
	instance    Instance
	ttl         int64
	leaseID     clientv3.LeaseID
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewClient 创建etcd客户端
func NewClient(cfg config.EtcdConfig) (*clientv3.Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return client, nil
}

func NewServiceRegistry(etcdCfg config.EtcdConfig, regCfg config.ServiceRegistryConfig, instance Instance) (*ServiceRegistry, error) {
	client, err := NewClient(etcdCfg)
	if err != nil {
		return nil, err
	}
	ttl := int64(regCfg.TTL.Seconds())
	if ttl <= 0 {
		ttl = 30
	}
	if instance.ID == "" {
		instance.ID = regCfg.ServiceID
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceRegistry{
		client:      client,
		serviceName: regCfg.ServiceName,
		instance:    instance,
		ttl:         ttl,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// InstanceKey /services/{name}/{id}
func InstanceKey(serviceName, instanceID string) string {
	return keyPrefix + serviceName + "/" + instanceID
}

// Register 写入实例信息并保持租约
func (r *ServiceRegistry) Register() error {
	leaseResp, err := r.client.Grant(r.ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	r.leaseID = leaseResp.ID

	r.instance.RegisteredAt = time.Now().UTC()
	payload, err := json.Marshal(r.instance)
	if err != nil {
		return err
	}
	key := InstanceKey(r.serviceName, r.instance.ID)
	if _, err := r.client.Put(r.ctx, key, string(payload), clientv3.WithLease(r.leaseID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	ch, err := r.client.KeepAlive(r.ctx, r.leaseID)
	if err != nil {
		return fmt.Errorf("failed to keep alive lease: %w", err)
	}
	go func() {
		for {
			select {
			case <-r.ctx.Done():
				return
			case ka := <-ch:
				if ka == nil {
					logger.Warnf("Etcd keep alive channel closed key=%s", key)
					return
				}
			}
		}
	}()

	logger.Infof("Service registered key=%s http=%s grpc=%s", key, r.instance.HTTPAddr, r.instance.GRPCAddr)
	return nil
}

// Deregister 撤销租约并关闭客户端
func (r *ServiceRegistry) Deregister() error {
	r.cancel()
	if r.leaseID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
			logger.Warnf("Failed to revoke lease error=%v", err)
		}
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close etcd client: %w", err)
	}
	logger.Infof("Service deregistered id=%s", r.instance.ID)
	return nil
}

// ListInstances 读取当前注册的实例
func ListInstances(ctx context.Context, client *clientv3.Client, serviceName string) ([]Instance, error) {
	resp, err := client.Get(ctx, keyPrefix+serviceName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get service instances: %w", err)
	}
	out := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		inst, err := DecodeInstance(kv.Value)
		if err != nil {
			logger.Warnf("Skip malformed instance key=%s error=%v", string(kv.Key), err)
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

// DecodeInstance 兼容只写了地址的旧格式
func DecodeInstance(value []byte) (Instance, error) {
	var inst Instance
	if len(value) > 0 && value[0] != '{' {
		return Instance{HTTPAddr: string(value)}, nil
	}
	if err := json.Unmarshal(value, &inst); err != nil {
		return Instance{}, err
	}
	return inst, nil
}
