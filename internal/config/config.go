package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Jira      JiraConfig
	Embedding EmbeddingConfig
	Chat      ChatConfig
	Retrieval RetrievalConfig
	Ingest    IngestConfig
	Postgres  PostgresConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	// 비어 있으면 /api/v1 인증 비활성
	JWTSecret string
	TokenTTL  time.Duration
}

type JiraConfig struct {
	BaseURL          string
	Email            string
	APIToken         string
	DoneStatus       string
	InProgressStatus string
	PageSize         int
	// 초당 요청 수, 0 이하이면 제한 없음
	RateLimit float64
}

type EmbeddingConfig struct {
	APIKey    string
	Model     string
	Dimension int
	MaxChars  int
}

type ChatConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	SessionTTL  time.Duration

	// 동시에 유지하는 세션 수 (LRU), 0 이면 무제한
	SessionMax int
	// 세션 handle 재시작 주기, 0 이면 무제한
	SessionMaxTurns int
}

type RetrievalConfig struct {
	TopK        int
	Mode        string
	CorpusLimit int
	QueryTurns  int
}

type IngestConfig struct {
	Workers int
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

const (
	RetrievalModeTopK   = "topk"
	RetrievalModeCorpus = "corpus"
)

func Load() Config {
	apiKey := os.Getenv("AI_API_KEY")
	return Config{
		Server: ServerConfig{
			Port:           getenv("PORT", "5000"),
			AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			JWTSecret:      os.Getenv("API_JWT_SECRET"),
			TokenTTL:       getenvDuration("API_TOKEN_TTL", 24*time.Hour),
		},
		Jira: JiraConfig{
			BaseURL:          strings.TrimRight(os.Getenv("JIRA_BASE_URL"), "/"),
			Email:            os.Getenv("JIRA_EMAIL"),
			APIToken:         os.Getenv("JIRA_API_TOKEN"),
			DoneStatus:       getenv("JIRA_DONE_STATUS", "Done"),
			InProgressStatus: getenv("JIRA_IN_PROGRESS_STATUS", "In Progress"),
			PageSize:         getenvInt("JIRA_PAGE_SIZE", 50),
			RateLimit:        getenvFloat("JIRA_RATE_LIMIT", 5),
		},
		Embedding: EmbeddingConfig{
			APIKey:    apiKey,
			Model:     getenv("EMBEDDING_MODEL", "text-embedding-004"),
			Dimension: getenvInt("EMBEDDING_DIMENSION", 768),
			MaxChars:  getenvInt("EMBEDDING_MAX_CHARS", 8000),
		},
		Chat: ChatConfig{
			APIKey:          apiKey,
			Model:           getenv("CHAT_MODEL", "gemini-2.0-flash"),
			Timeout:         getenvDuration("CHAT_TIMEOUT", 60*time.Second),
			MaxAttempts:     getenvInt("CHAT_MAX_ATTEMPTS", 3),
			RetryDelay:      getenvDuration("CHAT_RETRY_DELAY", 500*time.Millisecond),
			SessionTTL:      getenvDuration("CHAT_SESSION_TTL", 30*time.Minute),
			SessionMax:      getenvInt("CHAT_SESSION_MAX", 1000),
			SessionMaxTurns: getenvInt("CHAT_SESSION_MAX_TURNS", 50),
		},
		Retrieval: RetrievalConfig{
			TopK:        getenvInt("RETRIEVAL_TOP_K", 5),
			Mode:        getenv("RETRIEVAL_MODE", RetrievalModeTopK),
			CorpusLimit: getenvInt("RETRIEVAL_CORPUS_LIMIT", 50),
			QueryTurns:  getenvInt("RETRIEVAL_QUERY_TURNS", 3),
		},
		Ingest: IngestConfig{
			Workers: getenvInt("INGEST_WORKERS", 1),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "console"),
			File:   os.Getenv("LOG_FILE"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
