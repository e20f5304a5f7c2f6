package gateway

// StorageGateway 对象存储寻址, 本服务不读写媒体内容
type StorageGateway interface {
	// Bucket 源对象与产物所在桶
	Bucket() string
	// PublicURL 由对象key推导可访问的URL
	PublicURL(objectKey string) string
}
