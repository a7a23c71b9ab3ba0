package fastembed

import "path/filepath"

// DefaultModel is the sentence-transformers model used when none is configured.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Config holds configuration for the fastembed provider.
type Config struct {
	// Model is the embedding model to use.
	Model string
	// CacheDir is the directory model files are downloaded into.
	CacheDir string
	// MaxLength is the maximum input sequence length in tokens.
	MaxLength int
	// BatchSize is the number of texts encoded per ONNX run.
	BatchSize    int
	ShowProgress bool
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(".", "local_cache")
	}
	if c.MaxLength == 0 {
		c.MaxLength = 512
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	return c
}

var modelDimensions = map[string]int{
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"all-MiniLM-L6-v2":                       384,
	"fast-all-MiniLM-L6-v2":                  384,
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-small-en":                      384,
	"BAAI/bge-base-en-v1.5":                  768,
	"BAAI/bge-base-en":                       768,
	"BAAI/bge-small-zh-v1.5":                 512,
	"fast-bge-small-en-v1.5":                 384,
	"fast-bge-small-en":                      384,
	"fast-bge-base-en-v1.5":                  768,
	"fast-bge-base-en":                       768,
	"fast-bge-small-zh-v1.5":                 512,
}

// ModelDimension returns the vector size of a supported model.
func ModelDimension(model string) (int, bool) {
	dim, ok := modelDimensions[model]
	return dim, ok
}
