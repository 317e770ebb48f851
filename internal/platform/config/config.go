package config

import (
	"os"
	"strings"
	"time"
)

// CloneIMSIPolicy selects how the clone engine treats the source IMSI.
type CloneIMSIPolicy string

const (
	// CloneIMSIReissue keeps the MCC+MNC prefix and derives a fresh
	// subscriber suffix. Default: two live cards must not share a network
	// identity.
	CloneIMSIReissue CloneIMSIPolicy = "reissue"
	// CloneIMSIPreserve copies the IMSI verbatim. Operationally risky; every
	// clone performed under this policy emits a warning audit event.
	CloneIMSIPreserve CloneIMSIPolicy = "preserve"
)

// Server captures process-level configuration. Built once in main from
// environment variables so the rest of the code takes plain values.
type Server struct {
	Addr string

	// PostgresDSN switches all stores from memory to PostgreSQL when set.
	PostgresDSN string

	// Redis backs the distributed clone lock when configured.
	Redis RedisConfig

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	// KafkaAuditTopic is the topic audit events are produced to.
	KafkaAuditTopic string

	// SMDPAddress is the server-address segment of generated activation
	// codes.
	SMDPAddress string

	// CloneIMSI selects IMSI handling on clone.
	CloneIMSI CloneIMSIPolicy
}

// RedisConfig mirrors the pool knobs the redis client accepts.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            getenv("SIMGUARD_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("SIMGUARD_POSTGRES_DSN"),
		SMDPAddress:     getenv("SIMGUARD_SMDP_ADDRESS", "rsp.simguard.local"),
		KafkaAuditTopic: getenv("SIMGUARD_KAFKA_AUDIT_TOPIC", "simguard.audit"),
		CloneIMSI:       CloneIMSIReissue,
		Redis: RedisConfig{
			URL:          os.Getenv("SIMGUARD_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	if brokers := os.Getenv("SIMGUARD_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if policy := os.Getenv("SIMGUARD_CLONE_IMSI_POLICY"); policy == string(CloneIMSIPreserve) {
		cfg.CloneIMSI = CloneIMSIPreserve
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
