package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Embedding EmbeddingConfig
	Index     IndexConfig
	Storage   StorageConfig
	Describe  DescribeConfig
	Album     AlbumConfig
	Prompts   PromptsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EmbeddingConfig struct {
	URL         string // embedding server base URL, defaults to http://localhost:8000
	VisualDim   int    // image encoder output dimension (default 1024)
	SemanticDim int    // sentence encoder output dimension (default 768)
	FaceDim     int    // face feature dimension (default 512)
}

// CompositeDim is the dimension of the concatenated visual+semantic vector
// stored in the photo index.
func (c *EmbeddingConfig) CompositeDim() int {
	return c.VisualDim + c.SemanticDim
}

type IndexConfig struct {
	PhotoIndexPath string // path to persist the composite photo index
	FaceIndexPath  string // path to persist the face index
}

type StorageConfig struct {
	DataDir string // root for uploads/ and thumbnails/ (default ./data)
}

type DescribeConfig struct {
	Provider    string // "openai", "gemini", "ollama" or empty to disable
	OpenAIToken string
	GeminiKey   string
	OllamaURL   string // defaults to http://localhost:11434
	OllamaModel string // defaults to llama3.2-vision:11b
}

type AlbumConfig struct {
	FaceMatchThreshold float64 // minimum cosine similarity to join an existing cluster (default 0.5)
	AutoDescribe       bool    // run the describe service during upload
	EnhancedSearch     bool    // include the semantic part in text search queries
	ReconcileOnStart   bool    // run the index/metadata reconciliation pass at startup
}

type PromptsConfig struct {
	Describe DescribePrompts `yaml:"describe"`
}

type DescribePrompts struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
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

// envBool reads an environment variable as a boolean with a default.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var prompts PromptsConfig
	if err := yaml.Unmarshal(promptsYAML, &prompts); err != nil {
		// Embedded file, this should never happen in practice
		panic("failed to unmarshal embedded prompts.yaml: " + err.Error())
	}

	return &Config{
		Server: ServerConfig{
			Host: envString("SERVER_HOST", "0.0.0.0"),
			Port: envInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Embedding: EmbeddingConfig{
			URL:         envString("EMBEDDING_URL", "http://localhost:8000"),
			VisualDim:   envInt("EMBEDDING_VISUAL_DIM", 1024),
			SemanticDim: envInt("EMBEDDING_SEMANTIC_DIM", 768),
			FaceDim:     envInt("EMBEDDING_FACE_DIM", 512),
		},
		Index: IndexConfig{
			PhotoIndexPath: envString("PHOTO_INDEX_PATH", "data/album_photos.index"),
			FaceIndexPath:  envString("FACE_INDEX_PATH", "data/album_faces.index"),
		},
		Storage: StorageConfig{
			DataDir: envString("DATA_DIR", "data"),
		},
		Describe: DescribeConfig{
			Provider:    os.Getenv("DESCRIBE_PROVIDER"),
			OpenAIToken: os.Getenv("OPENAI_TOKEN"),
			GeminiKey:   os.Getenv("GEMINI_API_KEY"),
			OllamaURL:   os.Getenv("OLLAMA_URL"),
			OllamaModel: os.Getenv("OLLAMA_MODEL"),
		},
		Album: AlbumConfig{
			FaceMatchThreshold: envFloat("FACE_MATCH_THRESHOLD", 0.5),
			AutoDescribe:       envBool("AUTO_DESCRIBE", true),
			EnhancedSearch:     envBool("ENHANCED_SEARCH", true),
			ReconcileOnStart:   envBool("RECONCILE_ON_START", false),
		},
		Prompts: prompts,
	}
}
