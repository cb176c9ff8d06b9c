// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/mcmotd/internal/logger"
	"github.com/woozymasta/mcmotd/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Server    Server        `group:"Server Options" env-namespace:"MCMOTD"`
	Provider  Provider      `group:"Provider Options" namespace:"provider" env-namespace:"MCMOTD_PROVIDER"`
	Report    Report        `group:"Report Options" namespace:"report" env-namespace:"MCMOTD_REPORT"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"MCMOTD_DB"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"MCMOTD_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"MCMOTD_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"MCMOTD_LOG"`

	Query   string `short:"q" long:"query" description:"Resolve a single host[:port], print the report and exit"`
	Version bool   `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration.
type Server struct {
	// betteralign:ignore

	Address     string   `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	Groups      []string `short:"g" long:"group" env:"GROUPS" description:"Groups served by this instance (empty serves all)" env-delim:","`
	MaxBodySize int64    `long:"max-body-size" env:"MAX_BODY_SIZE" description:"Max body size for incoming requests" default:"1024"`
	TrustProxy  bool     `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Provider holds status provider configuration.
type Provider struct {
	// betteralign:ignore

	PrimaryURL   string        `long:"primary-url" env:"PRIMARY_URL" description:"BlackBE status API base URL" default:"https://motdbe.blackbe.work/api"`
	SecondaryURL string        `long:"secondary-url" env:"SECONDARY_URL" description:"mcapi status API base URL" default:"https://api.imlazy.ink/mcapi/"`
	Timeout      time.Duration `long:"timeout" env:"TIMEOUT" description:"Timeout for a single provider lookup" default:"8s"`
	Rate         float64       `long:"rate" env:"RATE" description:"Outgoing lookups per second (0 disables the limit)" default:"5"`
	Burst        int           `long:"burst" env:"BURST" description:"Outgoing lookup burst size" default:"10"`
}

// Report holds rendering configuration.
type Report struct {
	Lang string `long:"lang" env:"LANG" description:"Default report language" choice:"zh" choice:"en" default:"zh"`
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path          string `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"mcmotd.db"`
	Check         bool   `long:"check" description:"Resolve every bound server and log its status"`
	PruneOffline  bool   `long:"prune-offline" description:"Resolve every bound server and unbind the ones reported offline"`
	PruneInvalid  bool   `long:"prune-invalid" description:"Unbind stored addresses that are no longer valid"`
	Import        string `long:"import" description:"Import group bindings from a YAML file"`
	GenerateCount int    `long:"gen-fake-data" hidden:"true"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Enable   bool          `long:"enable" env:"ENABLE" description:"Attach the server country to online reports"`
	Path     string        `long:"path" env:"PATH" description:"Path to MMDB file" default:"mcmotd.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"20"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return &cfg
}

// Validate checks values that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Provider.PrimaryURL == "" || c.Provider.SecondaryURL == "" {
		return fmt.Errorf("both `--provider-primary-url' and `--provider-secondary-url' must be set")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("`--provider-timeout' must be positive, got %s", c.Provider.Timeout)
	}
	if c.RateLimit.HardLimitCount > 0 && c.RateLimit.HardLimitWin <= 0 {
		return fmt.Errorf("`--rate-limit-hard-window' must be positive when a hard limit is set")
	}

	return nil
}
