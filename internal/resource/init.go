package resource

import "media-pipeline-service/pkg/manager"

func init() {
	// 注册资源插件
	manager.RegisterResourcePlugin(&DatabaseResourcePlugin{})
	manager.RegisterResourcePlugin(&RedisResourcePlugin{})
	manager.RegisterResourcePlugin(&MinioResourcePlugin{})
	manager.RegisterResourcePlugin(&KafkaResourcePlugin{})
}
