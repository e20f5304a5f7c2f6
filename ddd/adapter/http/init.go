package http

import "media-pipeline-service/pkg/manager"

func init() {
	// 注册控制器插件
	manager.RegisterControllerPlugin(&SystemControllerPlugin{})
	manager.RegisterControllerPlugin(&PipelineControllerPlugin{})
	manager.RegisterControllerPlugin(&WebhookControllerPlugin{})
}
