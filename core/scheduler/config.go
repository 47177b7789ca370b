package scheduler

// Config holds configuration for the background task pool.
type Config struct {
	// Workers is the number of goroutines draining the queue.
	Workers int `mapstructure:"workers" default:"2"`
	// Capacity is the maximum number of queued tasks. Enqueueing beyond
	// this limit fails with ErrUnavailable.
	Capacity int `mapstructure:"capacity" default:"64"`
}
