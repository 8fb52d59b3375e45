package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Corpus source kinds accepted by CorpusSource.
const (
	SourceFile = "file"
	SourceS3   = "s3"
)

// Config holds all configuration values.
type Config struct {
	// HTTP server
	ListenAddr     string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	// Corpus source
	CorpusSource string
	CorpusPath   string
	Watch        bool
	PollInterval time.Duration

	// S3 corpus location, used when CorpusSource is "s3". Empty access
	// keys select the default AWS credential chain.
	S3Bucket    string
	S3Key       string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	// Generation budgets
	DefaultMaxTokens int
	TokenCap         int

	// Transcript database; empty disables history recording
	TranscriptDB string

	// Web search
	SearchUserAgent string
	SearchResults   int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables, falling back to
// an optional YAML file (CUBE_CONFIG, default ./cube.yaml), then to
// built-in defaults. A .env file in the working directory is loaded
// first if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	file, err := loadFile(os.Getenv("CUBE_CONFIG"))
	if err != nil {
		return Config{}, err
	}
	l := lookup{file: file}

	cfg := Config{
		ListenAddr:     l.get("CUBE_LISTEN_ADDR", ":8420"),
		AllowedOrigins: splitList(l.get("CUBE_ALLOWED_ORIGINS", "*")),
		RateLimitRPS:   l.getFloat("CUBE_RATE_RPS", 5),
		RateLimitBurst: l.getInt("CUBE_RATE_BURST", 10),

		CorpusSource: l.get("CUBE_CORPUS_SOURCE", SourceFile),
		CorpusPath:   l.get("CUBE_CORPUS_PATH", "corpus.json"),
		Watch:        l.getBool("CUBE_WATCH", true),
		PollInterval: l.getDuration("CUBE_POLL_INTERVAL", 30*time.Second),

		S3Bucket:    l.get("CUBE_S3_BUCKET", ""),
		S3Key:       l.get("CUBE_S3_KEY", "corpus.json"),
		S3Region:    l.get("CUBE_S3_REGION", "us-east-1"),
		S3Endpoint:  l.get("CUBE_S3_ENDPOINT", ""),
		S3AccessKey: l.get("CUBE_S3_ACCESS_KEY", ""),
		S3SecretKey: l.get("CUBE_S3_SECRET_KEY", ""),

		DefaultMaxTokens: l.getInt("CUBE_MAX_TOKENS", 40),
		TokenCap:         l.getInt("CUBE_TOKEN_CAP", 200),

		TranscriptDB: l.get("CUBE_TRANSCRIPT_DB", "cube-history.db"),

		SearchUserAgent: l.get("CUBE_SEARCH_USER_AGENT", "Mozilla/5.0 (compatible; CubeBot/1.0)"),
		SearchResults:   l.getInt("CUBE_SEARCH_RESULTS", 5),

		LogFile:  l.get("CUBE_LOG_FILE", ""),
		LogLevel: parseLogLevel(l.get("CUBE_LOG_LEVEL", "INFO")),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.CorpusSource {
	case SourceFile, SourceS3:
	default:
		return fmt.Errorf("invalid corpus source %q (want %q or %q)", c.CorpusSource, SourceFile, SourceS3)
	}
	if c.CorpusSource == SourceS3 && c.S3Bucket == "" {
		return fmt.Errorf("corpus source %q requires CUBE_S3_BUCKET", SourceS3)
	}
	return nil
}

// lookup resolves a key against the environment first and the YAML file
// second. File keys are the lower-cased env names without the CUBE_
// prefix, e.g. CUBE_LISTEN_ADDR -> listen_addr.
type lookup struct {
	file map[string]string
}

func (l lookup) get(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val, ok := l.file[fileKey(key)]; ok && val != "" {
		return val
	}
	return defaultVal
}

func (l lookup) getInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(l.get(key, "")); err == nil {
		return v
	}
	return defaultVal
}

func (l lookup) getFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(l.get(key, ""), 64); err == nil {
		return v
	}
	return defaultVal
}

func (l lookup) getBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(l.get(key, "")); err == nil {
		return v
	}
	return defaultVal
}

func (l lookup) getDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(l.get(key, "")); err == nil {
		return v
	}
	return defaultVal
}

func fileKey(envKey string) string {
	return strings.ToLower(strings.TrimPrefix(envKey, "CUBE_"))
}

// loadFile reads the YAML config file into a flat key map. Scalar values
// only; a missing file is not an error unless the path was set
// explicitly.
func loadFile(path string) (map[string]string, error) {
	explicit := path != ""
	if path == "" {
		path = "cube.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any, nil:
			continue
		default:
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
