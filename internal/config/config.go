package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Replicate 推理服务
	ReplicateAPIToken    string        `env:"REPLICATE_API_TOKEN"`
	ReplicateBaseURL     string        `env:"REPLICATE_BASE_URL" envDefault:"https://api.replicate.com/v1"`
	ReplicateHTTPTimeout time.Duration `env:"REPLICATE_HTTP_TIMEOUT" envDefault:"60s"`
	SemanticVersionID    string        `env:"SEMANTIC_VERSION_ID"`
	RefinementVersionID  string        `env:"REFINEMENT_VERSION_ID"`
	PollInterval         time.Duration `env:"POLL_INTERVAL" envDefault:"3s"`
	PollTimeout          time.Duration `env:"POLL_TIMEOUT" envDefault:"8m"`

	DBType     string `env:"DBType" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"pseudorandom"`
	DBPath     string `env:"DBPath" envDefault:"datas/worker.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	// Supabase 项目，APP_ENV 决定使用哪一组
	SupabaseURL               string `env:"SUPABASE_URL"`
	SupabaseServiceRoleKey    string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseDevURL            string `env:"SUPABASE_DEV_URL"`
	SupabaseDevServiceRoleKey string `env:"SUPABASE_DEV_SERVICE_ROLE_KEY"`

	StorageType             string        `env:"STORAGE_TYPE" envDefault:"local"`
	StorageLocalDir         string        `env:"STORAGE_LOCAL_DIR" envDefault:"datas/images"`
	StoragePublicBaseURL    string        `env:"STORAGE_PUBLIC_BASE_URL" envDefault:"/files"`
	StorageSemanticBucket   string        `env:"STORAGE_SEMANTIC_BUCKET" envDefault:"semanticRenders"`
	StorageRefinementBucket string        `env:"STORAGE_REFINEMENT_BUCKET" envDefault:"refinementRenders"`
	StorageFetchTimeout     time.Duration `env:"STORAGE_FETCH_TIMEOUT" envDefault:"60s"`

	// S3 兼容存储配置
	StorageS3Region          string `env:"STORAGE_S3_REGION"`
	StorageS3Bucket          string `env:"STORAGE_S3_BUCKET"`
	StorageS3Prefix          string `env:"STORAGE_S3_PREFIX"`
	StorageS3Endpoint        string `env:"STORAGE_S3_ENDPOINT"`
	StorageS3AccessKeyID     string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	StorageS3SecretAccessKey string `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	StorageS3SessionToken    string `env:"STORAGE_S3_SESSION_TOKEN"`
	StorageS3ForcePathStyle  bool   `env:"STORAGE_S3_FORCE_PATH_STYLE" envDefault:"false"`

	// 阿里云 OSS 存储配置
	StorageOSSEndpoint        string `env:"STORAGE_OSS_ENDPOINT"`
	StorageOSSBucket          string `env:"STORAGE_OSS_BUCKET"`
	StorageOSSPrefix          string `env:"STORAGE_OSS_PREFIX"`
	StorageOSSAccessKeyID     string `env:"STORAGE_OSS_ACCESS_KEY_ID"`
	StorageOSSAccessKeySecret string `env:"STORAGE_OSS_ACCESS_KEY_SECRET"`

	// 腾讯云 COS 存储配置
	StorageCOSBucketURL string `env:"STORAGE_COS_BUCKET_URL"`
	StorageCOSPrefix    string `env:"STORAGE_COS_PREFIX"`
	StorageCOSSecretID  string `env:"STORAGE_COS_SECRET_ID"`
	StorageCOSSecretKey string `env:"STORAGE_COS_SECRET_KEY"`

	// Cloudflare R2 存储配置
	StorageR2AccountID       string `env:"STORAGE_R2_ACCOUNT_ID"`
	StorageR2Endpoint        string `env:"STORAGE_R2_ENDPOINT"`
	StorageR2Region          string `env:"STORAGE_R2_REGION" envDefault:"auto"`
	StorageR2Bucket          string `env:"STORAGE_R2_BUCKET"`
	StorageR2Prefix          string `env:"STORAGE_R2_PREFIX"`
	StorageR2AccessKeyID     string `env:"STORAGE_R2_ACCESS_KEY_ID"`
	StorageR2SecretAccessKey string `env:"STORAGE_R2_SECRET_ACCESS_KEY"`

	// 余额锁，留空则不加锁
	RedisURL        string        `env:"REDIS_URL"`
	BalanceLockTTL  time.Duration `env:"BALANCE_LOCK_TTL" envDefault:"10s"`
	BalanceLockWait time.Duration `env:"BALANCE_LOCK_WAIT" envDefault:"5s"`

	IntakeTokenSecret string `env:"INTAKE_TOKEN_SECRET"`
	IntakeTokenIssuer string `env:"INTAKE_TOKEN_ISSUER" envDefault:"pseudorandom-webapp"`

	DevSeedUserID  string  `env:"DEV_SEED_USER_ID"`
	DevSeedBalance float64 `env:"DEV_SEED_BALANCE" envDefault:"100"`
}

// ParseConfig loads .env when present, then parses the process environment.
func ParseConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("failed to load .env file")
	}
	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	logrus.WithFields(logrus.Fields{
		"app_env":      Conf.AppEnv,
		"db_type":      Conf.DBType,
		"storage_type": Conf.StorageType,
	}).Debug("config loaded")
	return Conf, nil
}

// IsProduction reports whether APP_ENV selects the production deployment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), EnvProduction)
}

// Environment returns the normalised deployment name.
func (c Config) Environment() string {
	if c.IsProduction() {
		return EnvProduction
	}
	return EnvDevelopment
}

// SupabaseCredentials resolves the project url and service key for the
// current environment. Development falls back to the production pair when no
// dedicated development project is configured.
func (c Config) SupabaseCredentials() (url, key string) {
	if !c.IsProduction() && strings.TrimSpace(c.SupabaseDevURL) != "" {
		return strings.TrimSpace(c.SupabaseDevURL), strings.TrimSpace(c.SupabaseDevServiceRoleKey)
	}
	return strings.TrimSpace(c.SupabaseURL), strings.TrimSpace(c.SupabaseServiceRoleKey)
}

// ConfigureLogging applies LOG_LEVEL and picks the formatter for the
// environment.
func ConfigureLogging(c Config) {
	if c.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		logrus.WithError(err).WithField("log_level", c.LogLevel).Warn("invalid log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
