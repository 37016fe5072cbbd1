package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pseudotools/pseudorandom-worker/internal/config"
)

const (
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeSupabase 表示 Supabase Storage，Category 即桶名。
	TypeSupabase = "supabase"
	// TypeS3 表示 Amazon S3 或兼容的存储后端。
	TypeS3 = "s3"
	// TypeOSS 表示阿里云 OSS 存储。
	TypeOSS = "oss"
	// TypeCOS 表示腾讯云 COS 存储。
	TypeCOS = "cos"
	// TypeR2 表示 Cloudflare R2 存储。
	TypeR2 = "r2"
)

// SaveOptions 控制存储后端如何持久化文件。
//
// Category 是逻辑桶名（如 semanticRenders），对象存储后端将其作为目录前缀。
// BaseName 为文件名（不含扩展名），Extension 不含前导点。
type SaveOptions struct {
	Category     string
	BaseName     string
	Extension    string
	ContentType  string
	SkipIfExists bool
}

// Storage 持久化二进制数据并返回形如 {category}/{base}.{ext} 的对象键。
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
	// PublicURL 将 Save 返回的对象键转换为可公开访问的地址。
	PublicURL(key string) string
}

// LocalBaseDirProvider 由暴露可通过 HTTP 直接提供服务的本地目录的存储驱动实现。
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage 根据配置实例化存储后端。
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir, cfg.StoragePublicBaseURL)
	case TypeSupabase:
		return NewSupabaseStorage(cfg)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
