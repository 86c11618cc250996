package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var AppEnv Config

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	MongoURI          string
	DBName            string
	MongoTransactions bool

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AdminEmails     []string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CatalogCacheTTL time.Duration

	KafkaBrokers    []string
	KafkaOrderTopic string

	Storage StorageConfig

	DeliveryFee    float64
	DeliveryGPSMin float64
	DeliveryGPSMax float64

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// StorageConfig selects where uploaded product and reward images go.
type StorageConfig struct {
	Driver          string
	UploadDir       string
	PublicBaseURL   string
	OSSEndpoint     string
	OSSAccessKeyID  string
	OSSAccessSecret string
	OSSBucket       string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	AppEnv = Config{
		Port:     v.GetString("PORT"),
		GinMode:  v.GetString("GIN_MODE"),
		LogLevel: v.GetString("LOG_LEVEL"),

		MongoURI:          v.GetString("MONGO_URI"),
		DBName:            v.GetString("DB_NAME"),
		MongoTransactions: v.GetBool("MONGO_TRANSACTIONS"),

		JWTSecret:       v.GetString("JWT_SECRET"),
		AccessTokenTTL:  getDuration(v, "ACCESS_TOKEN_TTL", 20, time.Minute),
		RefreshTokenTTL: getDuration(v, "REFRESH_TOKEN_TTL", 7, 24*time.Hour),
		AdminEmails:     parseEmailList(v.GetString("ADMIN_EMAILS")),

		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		CatalogCacheTTL: getDuration(v, "CATALOG_CACHE_TTL", 60, time.Second),

		KafkaBrokers:    parseList(v.GetString("KAFKA_BROKERS")),
		KafkaOrderTopic: v.GetString("KAFKA_ORDER_TOPIC"),

		Storage: StorageConfig{
			Driver:          v.GetString("STORAGE_DRIVER"),
			UploadDir:       v.GetString("UPLOAD_DIR"),
			PublicBaseURL:   v.GetString("PUBLIC_BASE_URL"),
			OSSEndpoint:     v.GetString("OSS_ENDPOINT"),
			OSSAccessKeyID:  v.GetString("OSS_ACCESS_KEY_ID"),
			OSSAccessSecret: v.GetString("OSS_ACCESS_KEY_SECRET"),
			OSSBucket:       v.GetString("OSS_BUCKET"),
		},

		DeliveryFee:    v.GetFloat64("DELIVERY_FEE"),
		DeliveryGPSMin: v.GetFloat64("DELIVERY_GPS_MIN"),
		DeliveryGPSMax: v.GetFloat64("DELIVERY_GPS_MAX"),

		CORSOrigins:    parseList(v.GetString("CORS_ORIGINS")),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_NAME", "coffeeshop")
	v.SetDefault("MONGO_TRANSACTIONS", true)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_ORDER_TOPIC", "coffeeshop.orders")
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "./public/uploads")
	v.SetDefault("PUBLIC_BASE_URL", "/public/uploads")
	v.SetDefault("DELIVERY_FEE", 150)
	v.SetDefault("DELIVERY_GPS_MIN", 100)
	v.SetDefault("DELIVERY_GPS_MAX", 300)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)
}
