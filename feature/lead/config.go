package lead

import "strings"

// DefaultChunkSize bounds how many leads one scheduled invocation may
// process. It must stay below the per-invocation call ceiling of the
// external system.
const DefaultChunkSize = 50

// Config holds configuration for lead synchronization.
type Config struct {
	// Integration is the name of the external system, recorded on every
	// failure log entry.
	Integration string `mapstructure:"integration" default:"crm"`
	// Endpoint is the URL leads are pushed to.
	Endpoint string `mapstructure:"endpoint" default:"http://localhost:9090/leads"`
	// ApiToken is the bearer token attached to outgoing requests. The
	// value is passed to the credential provider and never logged.
	ApiToken string `mapstructure:"api_token" default:""`
	// ChunkSize is the number of leads processed per scheduled invocation.
	ChunkSize int `mapstructure:"chunk_size" default:"50"`
	// TrackedFields is the comma-separated set of lead fields whose change
	// makes a record eligible for synchronization.
	TrackedFields string `mapstructure:"tracked_fields" default:"first_name,last_name,company,email,source,status"`
	// TimeoutSeconds is the HTTP timeout for one outbound call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
}

// Tracked returns the tracked field names as a slice.
func (c Config) Tracked() []string {
	parts := strings.Split(c.TrackedFields, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if f := strings.TrimSpace(p); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Chunk returns the configured chunk size, falling back to the default.
func (c Config) Chunk() int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	return DefaultChunkSize
}
