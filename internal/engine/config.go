package engine

import "time"

// Config holds the scoring pipeline configuration, injected from main.
type Config struct {
	DebounceDelay  time.Duration // quiet period before a live update is scored
	RequestTimeout time.Duration // hard ceiling per worker request
	CacheSize      int           // bounded result cache capacity
	MaxPending     int           // pending-request table capacity
	SlowThreshold  time.Duration // TrackOperation warning threshold
}

// DefaultConfig returns the stock pipeline settings.
func DefaultConfig() Config {
	return Config{
		DebounceDelay:  500 * time.Millisecond,
		RequestTimeout: 30 * time.Second,
		CacheSize:      10,
		MaxPending:     16,
		SlowThreshold:  2 * time.Second,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.DebounceDelay <= 0 {
		c.DebounceDelay = d.DebounceDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.CacheSize <= 0 {
		c.CacheSize = d.CacheSize
	}
	if c.MaxPending <= 0 {
		c.MaxPending = d.MaxPending
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = d.SlowThreshold
	}
	return c
}
