// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	Cobalt    Cobalt
	App       App
	HTTP      HTTP
	Transport Transport
	Dir       Dir
	Proxy     Proxy
}

// Cobalt holds the remote instance credentials and request defaults.
type Cobalt struct {
	APIKey      string `env:"COBALT_API_KEY,required,notEmpty"`
	InstanceURI string `env:"COBALT_INSTANCE_URI,required,notEmpty"`
	UserAgent   string `env:"COBALT_USER_AGENT"                      envDefault:"Cobalt"`
	// empty leaves filenameStyle out of the request
	FilenameStyle string `env:"COBALT_FILENAME_STYLE" envDefault:""`
}

// App holds application-wide configuration.
type App struct {
	LogLevel    string `env:"COBALT_APP_LOG_LEVEL"    envDefault:"info"`
	PresetsFile string `env:"COBALT_APP_PRESETS_FILE" envDefault:""`
}

// HTTP holds gateway server configuration.
type HTTP struct {
	Port            string        `env:"COBALT_HTTP_PORT"             envDefault:":8080"`
	HandlerTimeout  time.Duration `env:"COBALT_HTTP_HANDLER_TIMEOUT"  envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"COBALT_HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"COBALT_HTTP_CORS_ORIGINS"     envDefault:"*"   envSeparator:","`
}

// Transport holds outbound HTTP client configuration.
type Transport struct {
	// RequestTimeout bounds status, services and media calls.
	RequestTimeout time.Duration `env:"COBALT_TRANSPORT_REQUEST_TIMEOUT" envDefault:"30s"`
	// DownloadTimeout bounds a whole file download.
	DownloadTimeout     time.Duration `env:"COBALT_TRANSPORT_DOWNLOAD_TIMEOUT"      envDefault:"30m"`
	DialTimeout         time.Duration `env:"COBALT_TRANSPORT_DIAL_TIMEOUT"          envDefault:"10s"`
	TLSHandshakeTimeout time.Duration `env:"COBALT_TRANSPORT_TLS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	MaxIdleConns        int           `env:"COBALT_TRANSPORT_MAX_IDLE_CONNS"        envDefault:"100"`
	IdleConnTimeout     time.Duration `env:"COBALT_TRANSPORT_IDLE_CONN_TIMEOUT"     envDefault:"90s"`
}

// Dir holds local paths.
type Dir struct {
	Downloads string `env:"COBALT_DIR_DOWNLOAD" envDefault:"./data/downloads"` // downloads stored here
}

// SetAbsPaths converts all directory paths to absolute paths.
func (c *Dir) SetAbsPaths() error {
	var err error
	if c.Downloads, err = filepath.Abs(c.Downloads); err != nil {
		return fmt.Errorf("downloads: %w", err)
	}

	return nil
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	return Load(nil)
}

// Load is New with overrides taking precedence over the process environment.
// Keys are environment variable names, e.g. COBALT_API_KEY.
func Load(overrides map[string]string) (*Config, error) {
	cfg := &Config{}

	environ := env.ToMap(os.Environ())
	for k, v := range overrides {
		environ[k] = v
	}

	err := env.ParseWithOptions(cfg, env.Options{Environment: environ})
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Dir.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set absolute paths: %w", err)
	}

	if cfg.App.PresetsFile != "" {
		if cfg.App.PresetsFile, err = filepath.Abs(cfg.App.PresetsFile); err != nil {
			return nil, fmt.Errorf("presets file: %w", err)
		}
	}

	cfg.Proxy.parseList()

	return cfg, nil
}

// Proxy holds outbound proxy configuration.
type Proxy struct {
	// List is a comma-separated list of proxy URLs (http, https, socks5)
	List string `env:"COBALT_PROXY_LIST" envDefault:""`
	// HealthCheckInterval is how often to check proxy health
	HealthCheckInterval time.Duration `env:"COBALT_PROXY_HEALTH_CHECK_INTERVAL" envDefault:"5m"`
	// FailureBackoff is the initial backoff duration for failed proxies
	FailureBackoff time.Duration `env:"COBALT_PROXY_FAILURE_BACKOFF" envDefault:"1m"`
	// MaxFailures is the maximum number of failures before a proxy is temporarily removed
	MaxFailures int `env:"COBALT_PROXY_MAX_FAILURES" envDefault:"3"`

	// Proxies is the parsed list of proxy URLs
	Proxies []string `env:"-"`
}

// parseList parses the comma-separated proxy list.
func (p *Proxy) parseList() {
	if p.List == "" {
		return
	}

	for proxy := range strings.SplitSeq(p.List, ",") {
		proxy = strings.TrimSpace(proxy)
		if proxy != "" {
			p.Proxies = append(p.Proxies, proxy)
		}
	}
}
