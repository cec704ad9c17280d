// Package config handles configuration for the homeserver: defaults, a JSON
// or YAML file overlay, and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/homeserver/internal/flagx"
)

// ErrInvalidConfig wraps every validation failure outside the email section.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds runtime settings for the homeserver.
type Config struct {
	ServerName string
	BindHost   string
	BindPort   int

	// TLS is enabled when both files are set.
	TLSCertFile string
	TLSKeyFile  string

	DatabaseEngine   string
	DatabasePath     string
	DatabaseMaxConns int

	WebClient               bool
	RedirectRootToWebClient bool
	WebClientDir            string
	UploadDir               string
	SigningKeyPath          string

	// AdminPort enables the loopback admin channel when non-zero.
	AdminPort         int
	AdminUser         string
	AdminPasswordHash string

	ShutdownTimeout time.Duration

	LogLevel   string
	LogFormat  string
	LogBackend string

	PublicBaseURL string
	Email         EmailConfig

	// Warnings collects non-fatal problems found while loading, for the
	// caller to log once a logger exists.
	Warnings []string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerName = "localhost"
	c.BindHost = "0.0.0.0"
	c.BindPort = 8448
	c.DatabaseEngine = "sqlite"
	c.DatabasePath = "homeserver.db"
	c.DatabaseMaxConns = 10
	c.WebClient = true
	c.RedirectRootToWebClient = true
	c.WebClientDir = "webclient"
	c.UploadDir = "uploads"
	c.SigningKeyPath = "homeserver.signing.key"
	c.ShutdownTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.LogBackend = "slog"
	c.Email.LoadDefaults()
}

// LoadConfig builds a Config from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load applies defaults, then the file named by -c/-config, then flags, and
// validates the result.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigFileFlag(args); path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules.
func (c *Config) Validate() error {
	if c.ServerName == "" {
		return fmt.Errorf("%w: server_name is empty", ErrInvalidConfig)
	}
	if c.BindPort <= 0 || c.BindPort > 65535 {
		return fmt.Errorf("%w: bind_port %d out of range", ErrInvalidConfig, c.BindPort)
	}
	if c.AdminPort < 0 || c.AdminPort > 65535 {
		return fmt.Errorf("%w: admin_port %d out of range", ErrInvalidConfig, c.AdminPort)
	}
	if c.AdminPort > 0 && (c.AdminUser == "" || c.AdminPasswordHash == "") {
		return fmt.Errorf("%w: admin_port is set but admin_user or admin_password_hash is empty", ErrInvalidConfig)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("%w: tls_cert_file and tls_key_file must be set together", ErrInvalidConfig)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database_path is empty", ErrInvalidConfig)
	}

	warnings, err := c.Email.Validate(c.PublicBaseURL)
	if err != nil {
		return err
	}
	c.Warnings = append(c.Warnings, warnings...)
	return nil
}

// TLSEnabled reports whether the listener serves HTTPS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// ListenAddr is the client and federation listener address.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.BindHost, strconv.Itoa(c.BindPort))
}

var explicitPortRe = regexp.MustCompile(`:[0-9]+$`)

// DomainWithPort is the server name as other servers reach it: server_name
// itself when it carries a port, otherwise server_name:bind_port.
func (c *Config) DomainWithPort() string {
	if explicitPortRe.MatchString(c.ServerName) {
		return c.ServerName
	}
	return c.ServerName + ":" + strconv.Itoa(c.BindPort)
}

func joinKeys(keys []string, prefix string) string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = prefix + k
	}
	return strings.Join(out, ", ")
}
