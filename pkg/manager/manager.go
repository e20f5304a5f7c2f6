package manager

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
)

// Resource 外部资源(redis, kafka, minio...), 启动时打开, 退出时关闭
type Resource interface {
	MustOpen()
	Close()
}

type ResourcePlugin interface {
	Name() string
	MustCreateResource() Resource
}

// Controller HTTP控制器
type Controller interface {
	RegisterRoutes(engine *gin.Engine)
}

type ControllerPlugin interface {
	Name() string
	MustCreateController() Controller
}

// Component 后台组件, 例如kafka消费者
type Component interface {
	Start() error
	Stop() error
	GetName() string
}

type ComponentPlugin interface {
	Name() string
	MustCreateComponent(deps *Dependencies) Component
}

// Dependencies 组件依赖注入容器
type Dependencies struct {
	DB     *gorm.DB
	Config *config.Config
	// PublishApp / WebhookApp 使用interface{}避免manager依赖应用层
	PublishApp interface{}
	WebhookApp interface{}
}

type registry struct {
	mu sync.Mutex

	resourcePlugins   []ResourcePlugin
	controllerPlugins []ControllerPlugin
	componentPlugins  []ComponentPlugin

	resources  []Resource
	components []Component
}

var defaultRegistry = &registry{}

func RegisterResourcePlugin(p ResourcePlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.resourcePlugins = append(defaultRegistry.resourcePlugins, p)
}

func RegisterControllerPlugin(p ControllerPlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.controllerPlugins = append(defaultRegistry.controllerPlugins, p)
}

func RegisterComponentPlugin(p ComponentPlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.componentPlugins = append(defaultRegistry.componentPlugins, p)
}

// MustInitResources 按注册顺序打开所有资源
func MustInitResources() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, p := range defaultRegistry.resourcePlugins {
		r := p.MustCreateResource()
		if r == nil {
			panic(fmt.Sprintf("resource plugin %s returned nil", p.Name()))
		}
		r.MustOpen()
		defaultRegistry.resources = append(defaultRegistry.resources, r)
		logger.Debugf("Resource opened name=%s", p.Name())
	}
}

// CloseResources 逆序关闭资源
func CloseResources() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for i := len(defaultRegistry.resources) - 1; i >= 0; i-- {
		defaultRegistry.resources[i].Close()
	}
	defaultRegistry.resources = nil
}

// MustInitComponents 创建并启动所有组件
func MustInitComponents(deps *Dependencies) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, p := range defaultRegistry.componentPlugins {
		c := p.MustCreateComponent(deps)
		if c == nil {
			continue
		}
		if err := c.Start(); err != nil {
			panic(fmt.Sprintf("component %s failed to start: %v", p.Name(), err))
		}
		defaultRegistry.components = append(defaultRegistry.components, c)
		logger.Infof("Component started name=%s", c.GetName())
	}
}

// Shutdown 停止所有组件
func Shutdown() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for i := len(defaultRegistry.components) - 1; i >= 0; i-- {
		c := defaultRegistry.components[i]
		if err := c.Stop(); err != nil {
			logger.Warnf("Component stop failed name=%s error=%v", c.GetName(), err)
		}
	}
	defaultRegistry.components = nil
}

// RegisterAllRoutes 注册所有控制器路由
func RegisterAllRoutes(engine *gin.Engine) {
	defaultRegistry.mu.Lock()
	plugins := append([]ControllerPlugin(nil), defaultRegistry.controllerPlugins...)
	defaultRegistry.mu.Unlock()
	for _, p := range plugins {
		p.MustCreateController().RegisterRoutes(engine)
		logger.Debugf("Controller registered name=%s", p.Name())
	}
}
