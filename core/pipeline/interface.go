package pipeline

// EmbedFunc is a function that generates a fixed-dimension embedding for text.
// The linker treats it as an external capability; any implementation with a
// stable dimension works.
type EmbedFunc func(text string) ([]float32, error)
