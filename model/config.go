package model

// LinkerConfig configures the similarity linker.
type LinkerConfig struct {
	// Threshold is the inclusive minimum cosine similarity for a link.
	Threshold float64 `json:"threshold"`
	// MaxParallel bounds the number of concurrent embedding calls.
	MaxParallel int `json:"max_parallel"`
	// Method names the similarity measure recorded on emitted links.
	Method string `json:"method"`
}

// DefaultLinkerConfig returns the default linker configuration.
func DefaultLinkerConfig() LinkerConfig {
	return LinkerConfig{
		Threshold:   0.8,
		MaxParallel: 4,
		Method:      "cosine",
	}
}
