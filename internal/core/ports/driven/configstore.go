package driven

// ConfigStore holds settings as dotted keys such as "chunking.size".
// The file adapter persists them as TOML; the memory adapter never
// touches disk.
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	// GetString returns "" for a missing or non-string value.
	GetString(key string) string

	// GetInt returns 0 for a missing or non-numeric value.
	GetInt(key string) int

	// GetBool returns false for a missing or non-boolean value.
	GetBool(key string) bool

	// GetStringSlice returns nil for a missing value.
	GetStringSlice(key string) []string

	// Set stores a value and persists it.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is the backing file, or ":memory:" for the memory store.
	Path() string
}
