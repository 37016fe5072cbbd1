package model

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Pseudotools/pseudorandom-worker/internal/config"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/Pseudotools/pseudorandom-worker/internal/model/sql"
	"github.com/Pseudotools/pseudorandom-worker/internal/model/supabase"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DBTypeMySQL    = "mysql"
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
	DBTypeSupabase = "supabase"

	defaultSQLitePath = "datas/worker.db"
)

// RepositoryFactory 根据数据库类型创建对应的仓库实现
type RepositoryFactory struct{}

// NewRepositoryFactory 创建新的仓库工厂
func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

// InitRepository 初始化仓库的辅助函数
func InitRepository(cfg *config.Config) (Repository, error) {
	factory := NewRepositoryFactory()

	if cfg.DBType == "" {
		return nil, fmt.Errorf("DBType is required")
	}

	repo, err := factory.CreateRepository(cfg)
	if err != nil {
		return nil, err
	}

	return repo, nil
}

// CreateRepository 根据配置创建对应的仓库实现
func (f *RepositoryFactory) CreateRepository(cfg *config.Config) (Repository, error) {
	if cfg.DBType == DBTypeSupabase {
		return f.createSupabaseRepository(cfg)
	}

	dialector, err := f.dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := f.openGormDB(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBType, err)
	}
	// 表结构由本服务维护，启动时自动迁移
	if err := f.migrateSchema(db); err != nil {
		return nil, fmt.Errorf("failed to migrate %s schema: %w", cfg.DBType, err)
	}
	logrus.WithField("db_type", cfg.DBType).Info("using gorm repository")
	return sql.NewGormRepository(db), nil
}

// dialector 根据数据库类型构建 GORM 方言，DSN_URL 优先于分项配置
func (f *RepositoryFactory) dialector(cfg *config.Config) (gorm.Dialector, error) {
	dsn := strings.TrimSpace(cfg.DSNURL)
	switch cfg.DBType {
	case DBTypeMySQL:
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				cfg.DBUser, cfg.DBPassword, cfg.DBAddr, cfg.DBPort, cfg.DBName)
		}
		return mysql.Open(dsn), nil
	case DBTypePostgres:
		if dsn == "" {
			sslMode := "disable"
			if cfg.IsProduction() {
				sslMode = "require"
			}
			dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
				cfg.DBAddr, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, sslMode)
		}
		return postgres.Open(dsn), nil
	case DBTypeSQLite:
		filePath := strings.TrimSpace(cfg.DBPath)
		if filePath == "" {
			filePath = defaultSQLitePath
		}
		// SQLite 只会创建 .db 文件，目录需要提前存在
		if dir := filepath.Dir(filePath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create directory %q: %w", dir, err)
			}
		}
		return sqlite.Open(filePath), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

// createSupabaseRepository 创建 Supabase (PostgREST) 仓库，表结构由 Supabase 项目维护
func (f *RepositoryFactory) createSupabaseRepository(cfg *config.Config) (Repository, error) {
	url, key := cfg.SupabaseCredentials()
	repo, err := supabase.NewRepository(url, key)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Supabase: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"environment":  cfg.Environment(),
		"supabase_url": url,
	}).Info("using supabase repository")
	return repo, nil
}

func (f *RepositoryFactory) openGormDB(dialector gorm.Dialector) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(logrus.StandardLogger().WriterLevel(logrus.WarnLevel), "", 0),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// 每个 worker 同时只处理一个任务，连接池保持较小
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// migrateSchema 迁移任务、渲染、用户与账单表
func (f *RepositoryFactory) migrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.PredictionJob{},
		&entity.Render{},
		&entity.UserProfile{},
		&entity.Charge{},
	)
}
