package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed weights.yaml
var weightsYAML []byte

type Config struct {
	Web        WebConfig
	Database   DatabaseConfig
	Legacy     LegacyConfig
	Recognizer RecognizerConfig
	Matching   MatchingConfig
	Uploads    UploadsConfig
}

type WebConfig struct {
	Host          string
	Port          int
	SessionSecret string // secret for signing session cookies
	Username      string // login username; auth is disabled when empty
	Password      string
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// LegacyConfig points at the legacy MariaDB document register used by the
// bulk import command.
type LegacyConfig struct {
	MariaDBDSN string // e.g. register:register@tcp(mariadb:3306)/register
}

type RecognizerConfig struct {
	Provider     string // sidecar (default), openai, gemini
	SidecarURL   string // defaults to http://localhost:8000
	OpenAIToken  string
	GeminiAPIKey string
}

type UploadsConfig struct {
	Dir string // directory for probe image uploads (default public/uploads)
}

// MatchingConfig holds the scoring constants. Defaults come from the embedded
// weights.yaml; thresholds can be overridden per deployment via env vars.
type MatchingConfig struct {
	FaceThreshold     float64
	EmbeddingDim      int
	DocumentThreshold float64
	FieldWeights      map[string]float64
}

// weightsFile mirrors the embedded weights.yaml layout.
type weightsFile struct {
	Face struct {
		Threshold float64 `yaml:"threshold"`
		Dim       int     `yaml:"dim"`
	} `yaml:"face"`
	Document struct {
		Threshold float64            `yaml:"threshold"`
		Weights   map[string]float64 `yaml:"weights"`
	} `yaml:"document"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid;
// out-of-range values are caught later by Validate.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var weights weightsFile
	if err := yaml.Unmarshal(weightsYAML, &weights); err != nil {
		// Embedded file, should never happen in practice.
		panic("failed to unmarshal embedded weights.yaml: " + err.Error())
	}

	return &Config{
		Web: WebConfig{
			Host:          envDefault("WEB_HOST", "0.0.0.0"),
			Port:          envInt("WEB_PORT", 8080),
			SessionSecret: os.Getenv("WEB_SESSION_SECRET"),
			Username:      os.Getenv("WEB_USERNAME"),
			Password:      os.Getenv("WEB_PASSWORD"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Legacy: LegacyConfig{
			MariaDBDSN: os.Getenv("LEGACY_MARIADB_DSN"),
		},
		Recognizer: RecognizerConfig{
			Provider:     envDefault("RECOGNIZER_PROVIDER", "sidecar"),
			SidecarURL:   os.Getenv("RECOGNIZER_URL"),
			OpenAIToken:  os.Getenv("OPENAI_TOKEN"),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Matching: MatchingConfig{
			FaceThreshold:     envFloat("FACE_THRESHOLD", weights.Face.Threshold),
			EmbeddingDim:      envInt("EMBEDDING_DIM", weights.Face.Dim),
			DocumentThreshold: envFloat("MATCH_THRESHOLD", weights.Document.Threshold),
			FieldWeights:      weights.Document.Weights,
		},
		Uploads: UploadsConfig{
			Dir: envDefault("UPLOADS_DIR", "public/uploads"),
		},
	}
}

// Validate checks the matching invariants. Weights and thresholds are static
// configuration; an invalid value is a deployment error and fatal at startup,
// never a per-request condition.
func (c *Config) Validate() error {
	if c.Matching.FaceThreshold <= 0 {
		return fmt.Errorf("face threshold must be positive, got %v", c.Matching.FaceThreshold)
	}
	if c.Matching.DocumentThreshold < 0 || c.Matching.DocumentThreshold > 100 {
		return fmt.Errorf("document threshold must be in [0,100], got %v", c.Matching.DocumentThreshold)
	}
	if c.Matching.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Matching.EmbeddingDim)
	}
	if len(c.Matching.FieldWeights) == 0 {
		return fmt.Errorf("field weights must not be empty")
	}
	for field, weight := range c.Matching.FieldWeights {
		if weight <= 0 {
			return fmt.Errorf("weight for field %q must be positive, got %v", field, weight)
		}
	}
	return nil
}
