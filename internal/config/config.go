package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort           = "8080"
	defaultWaitlistURL    = "https://jq8a9fbq8c.execute-api.us-east-1.amazonaws.com/prod/waitlist"
	defaultTablesURL      = "https://jq8a9fbq8c.execute-api.us-east-1.amazonaws.com/prod/tables"
	defaultActionBaseURL  = "http://localhost:3000"
	defaultGroupID        = "mesaya-waitlist"
	defaultWaitlistTopics = "waitlist.updated"
	defaultTablesTopics   = "tables.updated"
	defaultSessionCookie  = "waitlist_session"
	defaultSiteTitle      = "Bootcamp Institute"
	defaultSiteSubtitle   = "Los pollos hermanos"
)

type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	REST      RESTConfig
	Dashboard DashboardConfig
	Kafka     KafkaConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Port string
}

type LoggingConfig struct {
	Directory string
	Level     string
	Format    string
}

// RESTConfig locates the waitlist API. The two collections live behind
// absolute URLs; actions are posted below ActionBaseURL.
type RESTConfig struct {
	WaitlistURL   string
	TablesURL     string
	ActionBaseURL string
	Timeout       time.Duration
}

type DashboardConfig struct {
	BannerTTL     time.Duration
	RenderWait    time.Duration
	SessionTTL    time.Duration
	SessionCookie string
	SiteTitle     string
	SiteSubtitle  string
}

// KafkaConfig lists the topics whose messages refresh the open sessions.
// No brokers means no consumers; no allowed actions means every action refreshes.
type KafkaConfig struct {
	Brokers        []string
	GroupID        string
	WaitlistTopics []string
	TablesTopics   []string
	AllowedActions []string
}

type SecurityConfig struct {
	JWTSecret    string
	JWTPublicKey string
	StaffRoles   []string
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Port: envOr("PORT", defaultPort)},
		Logging: LoggingConfig{
			Directory: envOr("LOG_DIR", "./logs"),
			Level:     envOr("LOG_LEVEL", "info"),
			Format:    envOr("LOG_FORMAT", "text"),
		},
		REST: RESTConfig{
			WaitlistURL:   envOr("WAITLIST_URL", defaultWaitlistURL),
			TablesURL:     envOr("TABLES_URL", defaultTablesURL),
			ActionBaseURL: envOr("ACTION_BASE_URL", defaultActionBaseURL),
		},
		Dashboard: DashboardConfig{
			SessionCookie: envOr("SESSION_COOKIE", defaultSessionCookie),
			SiteTitle:     envOr("SITE_TITLE", defaultSiteTitle),
			SiteSubtitle:  envOr("SITE_SUBTITLE", defaultSiteSubtitle),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(firstEnv("KAFKA_BROKERS", "KAFKA_BROKER")),
			GroupID:        envOr("KAFKA_GROUP_ID", defaultGroupID),
			WaitlistTopics: splitList(envOr("KAFKA_WAITLIST_TOPICS", defaultWaitlistTopics)),
			TablesTopics:   splitList(envOr("KAFKA_TABLES_TOPICS", defaultTablesTopics)),
			AllowedActions: splitList(os.Getenv("KAFKA_ALLOWED_ACTIONS")),
		},
		Security: SecurityConfig{
			JWTSecret:    strings.TrimSpace(os.Getenv("STAFF_JWT_SECRET")),
			JWTPublicKey: strings.ReplaceAll(strings.TrimSpace(os.Getenv("STAFF_JWT_PUBLIC_KEY")), `\n`, "\n"),
			StaffRoles:   splitList(os.Getenv("STAFF_ROLES")),
		},
	}

	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		return nil, fmt.Errorf("config: invalid PORT %q", cfg.Server.Port)
	}

	durations := []struct {
		name   string
		target *time.Duration
		def    time.Duration
	}{
		{"REST_TIMEOUT", &cfg.REST.Timeout, 10 * time.Second},
		{"BANNER_TTL", &cfg.Dashboard.BannerTTL, 3 * time.Second},
		{"RENDER_WAIT", &cfg.Dashboard.RenderWait, 2 * time.Second},
		{"SESSION_TTL", &cfg.Dashboard.SessionTTL, 30 * time.Minute},
	}
	for _, d := range durations {
		value, err := durationEnv(d.name, d.def)
		if err != nil {
			return nil, err
		}
		*d.target = value
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// durationEnv accepts Go durations ("3s") and bare integers as seconds.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("config: %s must be positive", key)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
