package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// TraceIDKey is the context key under which the per-request trace id travels.
const TraceIDKey = "traceId"

// KeywordMatchScore is the fixed relevance score attached to keyword-fallback
// results. It marks the match as non-semantic; vector similarity scores never
// take this exact synthetic value by construction.
const KeywordMatchScore float32 = 0.5

// InsufficientInfoAnswer is the canned answer returned when retrieval finds
// nothing above the score threshold. Empty retrieval is a success case, not
// an error.
const InsufficientInfoAnswer = "I don't have enough information in the knowledge base to answer this question. " +
	"Please try rephrasing or ask about topics covered in the documentation."

// Config is the immutable runtime configuration. It is built once in main
// via Load and handed to every constructor; nothing reads the environment
// after startup.
type Config struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	ShutdownTimeout time.Duration

	IsProd   bool
	LogLevel slog.Level

	// provider selection: "gemini" or "openai"
	LLMBackend string

	GoogleAPIKey         string
	GeminiModel          string
	GeminiEmbeddingModel string

	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIModel          string
	OpenAIEmbeddingModel string

	// EmbeddingDimensions is D: fixed for the lifetime of the index.
	EmbeddingDimensions int32

	QdrantHost     string
	QdrantPort     int
	QdrantUseTLS   bool
	QdrantPoolSize uint
	CollectionName string

	RedisAddr           string
	RedisPassword       string
	RedisJobDB          int
	RedisConversationDB int
	JobTTL              time.Duration
	ConversationTTL     time.Duration

	ChunkSize    int
	ChunkOverlap int

	MaxTokens          int
	DefaultTemperature float32
	DefaultMinScore    float32
	DefaultMaxSources  int

	// ProviderTimeout bounds every single embedding/generation/store call so
	// one slow sub-question cannot stall the whole request.
	ProviderTimeout time.Duration
	RequestTimeout  time.Duration

	// MaxConcurrentSubQueries caps the agentic fan-out.
	MaxConcurrentSubQueries int

	AuthToken    string
	NoAuthBypass bool

	RateLimitPerSecond  int
	BurstLimitPerSecond int

	MinWorkerCount       int64
	MaxWorkerCount       int64
	RequestsPerNewWorker int64
	IdleWorkerTimeout    time.Duration
	JobBufferLimit       int
	DataClassification   string
	UploadDir            string
	MaxUploadBytes       int64
	HTTPMaxIdleConns     int
	HTTPMaxIdleConnsHost int
	HTTPIdleConnTimeout  time.Duration
}

// Load builds the Config from the environment, with .env support for local
// development. Unset variables fall back to the documented defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ListenAddr:   envStr("LISTEN_ADDR", ":3000"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,

		ShutdownTimeout: 10 * time.Second,

		IsProd:   envBool("IS_PROD", false),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelDebug),

		LLMBackend: envStr("LLM_BACKEND", "gemini"),

		GoogleAPIKey:         os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:          envStr("GEMINI_MODEL", "gemini-2.5-flash-lite-preview-09-2025"),
		GeminiEmbeddingModel: envStr("GEMINI_EMBEDDING_MODEL", "gemini-embedding-001"),

		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:          envStr("OPENAI_MODEL", "gpt-4o"),
		OpenAIEmbeddingModel: envStr("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002"),

		EmbeddingDimensions: int32(envInt("EMBEDDING_DIMENSIONS", 1536)),

		QdrantHost:     envStr("QDRANT_HOST", "127.0.0.1"),
		QdrantPort:     envInt("QDRANT_PORT", 6334),
		QdrantUseTLS:   envBool("QDRANT_USE_TLS", false),
		QdrantPoolSize: 1,
		CollectionName: envStr("COLLECTION_NAME", "knowledge-base"),

		RedisAddr:           envStr("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisJobDB:          0,
		RedisConversationDB: 1,
		JobTTL:              24 * time.Hour,
		ConversationTTL:     24 * time.Hour,

		ChunkSize:    envInt("CHUNK_SIZE", 1000),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 200),

		MaxTokens:          envInt("MAX_TOKENS", 4096),
		DefaultTemperature: 0.7,
		DefaultMinScore:    0.7,
		DefaultMaxSources:  5,

		ProviderTimeout: 30 * time.Second,
		RequestTimeout:  90 * time.Second,

		MaxConcurrentSubQueries: envInt("MAX_CONCURRENT_SUB_QUERIES", 3),

		AuthToken:    os.Getenv("AUTH_TOKEN"),
		NoAuthBypass: envBool("NO_AUTH_BYPASS", true),

		RateLimitPerSecond:  2,
		BurstLimitPerSecond: 5,

		MinWorkerCount:       1,
		MaxWorkerCount:       10,
		RequestsPerNewWorker: 10,
		IdleWorkerTimeout:    1 * time.Minute,
		JobBufferLimit:       100,
		DataClassification:   envStr("DATA_CLASSIFICATION", "CONFIDENTIAL"),
		UploadDir:            envStr("UPLOAD_DIR", "temporary_data"),
		MaxUploadBytes:       32 << 20,
		HTTPMaxIdleConns:     50,
		HTTPMaxIdleConnsHost: 25,
		HTTPIdleConnTimeout:  60 * time.Second,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envLevel(key string, fallback slog.Level) slog.Level {
	switch os.Getenv(key) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return fallback
	}
}
