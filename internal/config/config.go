package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Supabase locates the corpus and comments tables and the audio bucket.
type Supabase struct {
	SupabaseURL   string
	SupabaseKey   string
	AudioBucket   string
	ArticlesTable string
	CommentsTable string
}

// Kafka names the refresh trigger topic.
type Kafka struct {
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaConsumer string
}

// Refresh holds everything one corpus refresh run needs.
type Refresh struct {
	Common
	Supabase
	GeminiAPIKey      string
	GeminiModel       string
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsModelID string
	PromptFile        string
	ProviderTimeout   time.Duration
	SearchMirror      bool
	KeywordLimit      int
	KeywordMinLength  int
}

// Worker configures the Kafka trigger consumer that runs refreshes.
type Worker struct {
	Refresh
	Kafka
	DedupeCapacity  int
	DedupeTTL       time.Duration
	FreshnessWindow time.Duration
}

// Scheduler configures the periodic trigger publisher.
type Scheduler struct {
	Kafka
	Interval time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Supabase
	Kafka
	BindAddr        string
	DefaultPage     int
	MaxPage         int
	FreshnessWindow time.Duration
	// Topic analysis is disabled when GeminiAPIKey is empty.
	GeminiAPIKey    string
	AnalysisModel   string
	AnalysisTimeout time.Duration
	PromptFile      string
}

// LoadRefresh builds a Refresh config from environment variables. Missing
// provider secrets are left empty; the clients reject them on construction.
func LoadRefresh() (*Refresh, error) {
	c := &Refresh{
		Common:            loadCommon(),
		Supabase:          loadSupabase(getEnv("SUPABASE_SERVICE_KEY", "")),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		ElevenLabsAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", "s3TPKV1kjDlVtZbl4Ksh"),
		ElevenLabsModelID: getEnv("ELEVENLABS_MODEL_ID", "eleven_monolingual_v1"),
		PromptFile:        getEnv("PROMPT_FILE", ""),
		ProviderTimeout:   getDuration("PROVIDER_TIMEOUT", "5m"),
		SearchMirror:      getBool("SEARCH_MIRROR", true),
		KeywordLimit:      getInt("SEARCH_KEYWORD_LIMIT", 8),
		KeywordMinLength:  getInt("SEARCH_KEYWORD_MIN_LEN", 4),
	}

	if c.ProviderTimeout <= 0 {
		return nil, fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.KeywordLimit <= 0 {
		return nil, fmt.Errorf("SEARCH_KEYWORD_LIMIT must be positive")
	}
	if c.KeywordMinLength < 0 {
		return nil, fmt.Errorf("SEARCH_KEYWORD_MIN_LEN cannot be negative")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	refresh, err := LoadRefresh()
	if err != nil {
		return nil, err
	}

	c := &Worker{
		Refresh:         *refresh,
		Kafka:           loadKafka(),
		DedupeCapacity:  getInt("WORKER_DEDUPE_CAPACITY", 1000),
		DedupeTTL:       getDuration("WORKER_DEDUPE_TTL", "24h"),
		FreshnessWindow: getDuration("FRESHNESS_WINDOW", "6h"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.FreshnessWindow <= 0 {
		return nil, fmt.Errorf("FRESHNESS_WINDOW must be positive")
	}

	return c, nil
}

// LoadScheduler builds a Scheduler config from environment variables.
func LoadScheduler() (*Scheduler, error) {
	c := &Scheduler{
		Kafka:    loadKafka(),
		Interval: getDuration("SCHEDULER_INTERVAL", "6h"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("SCHEDULER_INTERVAL must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables. Reads prefer the
// anon key and fall back to the service key.
func LoadAPI() (*API, error) {
	c := &API{
		Common:          loadCommon(),
		Supabase:        loadSupabase(getEnv("SUPABASE_ANON_KEY", getEnv("SUPABASE_SERVICE_KEY", ""))),
		Kafka:           loadKafka(),
		BindAddr:        getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage:     getInt("API_PAGE_SIZE", 10),
		MaxPage:         getInt("API_MAX_PAGE_SIZE", 100),
		FreshnessWindow: getDuration("FRESHNESS_WINDOW", "6h"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		AnalysisModel:   getEnv("ANALYSIS_MODEL", "gemini-2.5-flash"),
		AnalysisTimeout: getDuration("ANALYSIS_TIMEOUT", "2m"),
		PromptFile:      getEnv("PROMPT_FILE", ""),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	if c.FreshnessWindow <= 0 {
		return nil, fmt.Errorf("FRESHNESS_WINDOW must be positive")
	}
	if c.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("ANALYSIS_TIMEOUT must be positive")
	}

	return c, nil
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "articles"),
	}
}

func loadSupabase(key string) Supabase {
	return Supabase{
		SupabaseURL:   getEnv("SUPABASE_URL", getEnv("NEXT_PUBLIC_SUPABASE_URL", "")),
		SupabaseKey:   key,
		AudioBucket:   getEnv("SUPABASE_AUDIO_BUCKET", "article-audio"),
		ArticlesTable: getEnv("SUPABASE_ARTICLES_TABLE", "articles"),
		CommentsTable: getEnv("SUPABASE_COMMENTS_TABLE", "comments"),
	}
}

func loadKafka() Kafka {
	return Kafka{
		KafkaBrokers:  splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "refresh_triggers"),
		KafkaConsumer: getEnv("KAFKA_CONSUMER_GROUP", "refresh-worker"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, fallback)); err == nil {
		return d
	}
	fd, err := time.ParseDuration(fallback)
	if err != nil {
		panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, err))
	}
	return fd
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
