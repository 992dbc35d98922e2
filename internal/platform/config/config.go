package config

import (
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string
	// DatabaseURL is empty when running on in-memory stores.
	DatabaseURL string
	// RegistryStudyExternalID identifies the canonical registry study. Gating
	// only ever considers forms belonging to this study.
	RegistryStudyExternalID string
	JWTSigningKey           string
	// KafkaBrokers is empty when audit events stay in the local store.
	KafkaBrokers    string
	AuditTopic      string
	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("COHORT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	registryStudy := os.Getenv("COHORT_REGISTRY_STUDY")
	if registryStudy == "" {
		registryStudy = "registry"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	auditTopic := os.Getenv("COHORT_AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "cohort.audit"
	}

	return Server{
		Addr:                    addr,
		DatabaseURL:             os.Getenv("COHORT_DATABASE_URL"),
		RegistryStudyExternalID: registryStudy,
		JWTSigningKey:           jwtSigningKey,
		KafkaBrokers:            os.Getenv("COHORT_KAFKA_BROKERS"),
		AuditTopic:              auditTopic,
		ShutdownTimeout:         10 * time.Second,
	}
}
