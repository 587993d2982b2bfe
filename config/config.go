package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported values for Config.StoreBackend.
const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StoreObjects  = "objects"
	StoreMemory   = "memory"
)

// Supported values for AuthConfig.Mode.
const (
	AuthModeHeader = "header"
	AuthModeJWT    = "jwt"
)

type Config struct {
	ServerPort   int
	HealthPort   int
	LogLevel     string
	StoreBackend string
	Tables       TablesConfig
	DynamoDB     DynamoDBConfig
	Database     DatabaseConfig
	ObjectStore  string
	Minio        MinioConfig
	GCS          GCSConfig
	MQ           MQConfig
	Auth         AuthConfig
}

// TablesConfig names the three backing collections.
type TablesConfig struct {
	Goals          string
	Meals          string
	AllowList      string
	MealsDateIndex string
}

type DynamoDBConfig struct {
	Region   string
	Endpoint string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MQConfig struct {
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	PrefetchCount   int
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type AuthConfig struct {
	Mode      string
	Header    string
	JWTSecret string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "macrotrack"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "macrotrack_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	return Config{
		ServerPort:   getEnvInt("SERVER_PORT", 8080),
		HealthPort:   getEnvInt("HEALTH_PORT", 8081),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreDynamoDB)),
		Tables: TablesConfig{
			Goals:          getEnv("GOALS_TABLE_NAME", "default-DietGoals"),
			Meals:          getEnv("MEALS_TABLE_NAME", "default-MealLogs"),
			AllowList:      getEnv("ALLOWLIST_TABLE_NAME", "default-AllowedUsers"),
			MealsDateIndex: getEnv("MEALS_INDEX_NAME", "UserDateIndex"),
		},
		DynamoDB: DynamoDBConfig{
			Region:   getEnv("AWS_REGION", "us-east-1"),
			Endpoint: getEnv("DYNAMODB_ENDPOINT", ""),
		},
		Database:    dbConfig,
		ObjectStore: strings.ToLower(getEnv("OBJECT_STORE", "minio")),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "macrotrack"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		MQ: MQConfig{
			Backend: strings.ToLower(getEnv("MQ_BACKEND", "none")),
			Channel: getEnv("MQ_CHANNEL", "macro-events"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 10),
				QueueDurable:    getEnvBool("RABBITMQ_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_AUTO_DELETE", false),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
		},
		Auth: AuthConfig{
			Mode:      strings.ToLower(getEnv("AUTH_MODE", AuthModeHeader)),
			Header:    getEnv("SECURITY_HEADER", "X-Security-Key"),
			JWTSecret: strings.TrimSpace(getEnv("JWT_SECRET", "")),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}
