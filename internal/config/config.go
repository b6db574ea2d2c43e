package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	ServerAddr      string
	DataDir         string
	DatabasePath    string
	PresetsPath     string
	MaxSourceBytes  int64
	DefaultFormat   string
	DefaultQuality  int
	DefaultFit      string
	DefaultPosition string
	Background      string
	ResampleFilter  string
	RateLimitRender int
	TrustedProxies  string
	CacheTTLHours   int
	JanitorInterval int // minutes
	WorkerCount     int
	WorkerQueueSize int
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")
	return &Config{
		ServerAddr:      getEnv("SERVER_ADDR", ":8080"),
		DataDir:         dataDir,
		DatabasePath:    getEnv("DATABASE_PATH", filepath.Join(dataDir, "fitrender.db")),
		PresetsPath:     getEnv("PRESETS_PATH", filepath.Join(dataDir, "presets.yaml")),
		MaxSourceBytes:  int64(getEnvInt("MAX_SOURCE_BYTES", 32<<20)),
		DefaultFormat:   getEnv("DEFAULT_FORMAT", "webp"),
		DefaultQuality:  getEnvInt("DEFAULT_QUALITY", 0),
		DefaultFit:      getEnv("DEFAULT_FIT", "contain"),
		DefaultPosition: getEnv("DEFAULT_POSITION", "50% 50%"),
		Background:      getEnv("BACKGROUND", ""),
		ResampleFilter:  getEnv("RESAMPLE_FILTER", "lanczos"),
		RateLimitRender: getEnvInt("RATE_LIMIT_RENDER", 120),
		TrustedProxies:  getEnv("TRUSTED_PROXY_CIDRS", ""),
		CacheTTLHours:   getEnvInt("CACHE_TTL_HOURS", 7*24),
		JanitorInterval: getEnvInt("JANITOR_INTERVAL_MINUTES", 60),
		WorkerCount:     getEnvInt("WORKER_COUNT", 2),
		WorkerQueueSize: getEnvInt("WORKER_QUEUE_SIZE", 64),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to defaultValue when key is unset or not an integer.
func getEnvInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa" (the leading # is
// optional). An empty string yields nil, meaning transparent.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return nil, nil
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
