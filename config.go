package siren

import (
	"github.com/stewi1014/siren/class"
	"github.com/stewi1014/siren/encio"
)

// Config defines configuration for Streams.
type Config struct {
	// Registry resolves type names found in archives.
	// If nil, class.Default is used, which is where RegisterObject and friends register.
	Registry *class.Registry

	// MaxCount bounds container sizes read from archives.
	// If zero, encio.TooBig is used.
	MaxCount int
}

func (c *Config) copyAndFill() *Config {
	config := new(Config)
	if c != nil {
		*config = *c
	}

	if config.Registry == nil {
		config.Registry = class.Default
	}
	if config.MaxCount <= 0 {
		config.MaxCount = encio.TooBig
	}

	return config
}
