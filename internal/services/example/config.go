package example

import "time"

type Config struct {
	// MaxNumber bounds the accepted input; anything above is rejected.
	MaxNumber int
	CacheTTL  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxNumber: 50,
		CacheTTL:  5 * time.Minute,
	}
}
