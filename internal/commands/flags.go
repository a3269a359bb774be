package commands

import (
	"time"

	"github.com/sandeepkv93/tasksync/internal/config"
	"github.com/sandeepkv93/tasksync/internal/engine"
	"github.com/sandeepkv93/tasksync/internal/storage"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Populated in the Before hook; commands hold a pointer to Flags.
	Config *config.Config
	Store  storage.Repository
	Engine *engine.Engine

	// Now defaults to time.Now.
	Now func() time.Time
}

// DefaultConfigPath returns the config file path under XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	return config.DefaultPath()
}

func (f *Flags) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
