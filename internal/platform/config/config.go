package config

import (
	"os"
	"time"
)

// Server captures process-level configuration. Optional backends left empty
// degrade to in-memory implementations so the service still runs locally.
type Server struct {
	Addr          string
	AdminToken    string
	JWTSigningKey string
	// RegistrarAccount is the admin party used to bootstrap the registry
	// and to register parties on behalf of signups.
	RegistrarAccount string
	PostgresDSN      string
	Redis            RedisConfig
	Kafka            KafkaConfig
	PinningURL       string
	SessionTTL       time.Duration
}

// RedisConfig holds session store connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds ledger fan-out settings. Empty brokers disable fan-out.
type KafkaConfig struct {
	Brokers         string
	Topic           string
	DeliveryTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("MEDICHAIN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = "dev-admin-token"
	}

	registrar := os.Getenv("MEDICHAIN_REGISTRAR_ACCOUNT")
	if registrar == "" {
		registrar = "0xregistrar"
	}

	topic := os.Getenv("KAFKA_LEDGER_TOPIC")
	if topic == "" {
		topic = "medichain.ledger.events"
	}

	return Server{
		Addr:             addr,
		AdminToken:       adminToken,
		JWTSigningKey:    jwtSigningKey,
		RegistrarAccount: registrar,
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			Topic:           topic,
			DeliveryTimeout: 10 * time.Second,
		},
		PinningURL: os.Getenv("PINNING_SERVICE_URL"),
		SessionTTL: 12 * time.Hour,
	}
}
