package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts "10s"-style strings or integer nanoseconds in config
// files.
type Duration struct {
	time.Duration
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer nanoseconds: %s", b)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		d.Duration = time.Duration(n)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

// fileEmail mirrors EmailConfig for decoding.
type fileEmail struct {
	EnableNotifs             bool   `json:"enable_notifs" yaml:"enable_notifs"`
	SMTPHost                 string `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort                 int    `json:"smtp_port" yaml:"smtp_port"`
	SMTPUser                 string `json:"smtp_user" yaml:"smtp_user"`
	SMTPPass                 string `json:"smtp_pass" yaml:"smtp_pass"`
	RequireTransportSecurity bool   `json:"require_transport_security" yaml:"require_transport_security"`
	NotifFrom                string `json:"notif_from" yaml:"notif_from"`
	NotifTemplateHTML        string `json:"notif_template_html" yaml:"notif_template_html"`
	NotifTemplateText        string `json:"notif_template_text" yaml:"notif_template_text"`
	TemplateDir              string `json:"template_dir" yaml:"template_dir"`
	NotifForNewUsers         bool   `json:"notif_for_new_users" yaml:"notif_for_new_users"`
	RiotBaseURL              string `json:"riot_base_url" yaml:"riot_base_url"`
	AppName                  string `json:"app_name" yaml:"app_name"`
}

// fileConfig is the on-disk shape of Config. It is pre-filled from the
// current Config before decoding, so keys absent from the file keep their
// earlier values.
type fileConfig struct {
	ServerName              string    `json:"server_name" yaml:"server_name"`
	BindHost                string    `json:"bind_host" yaml:"bind_host"`
	BindPort                int       `json:"bind_port" yaml:"bind_port"`
	TLSCertFile             string    `json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile              string    `json:"tls_key_file" yaml:"tls_key_file"`
	DatabaseEngine          string    `json:"database_engine" yaml:"database_engine"`
	DatabasePath            string    `json:"database_path" yaml:"database_path"`
	DatabaseMaxConns        int       `json:"database_max_conns" yaml:"database_max_conns"`
	WebClient               bool      `json:"web_client" yaml:"web_client"`
	RedirectRootToWebClient bool      `json:"redirect_root_to_web_client" yaml:"redirect_root_to_web_client"`
	WebClientDir            string    `json:"web_client_dir" yaml:"web_client_dir"`
	UploadDir               string    `json:"upload_dir" yaml:"upload_dir"`
	SigningKeyPath          string    `json:"signing_key_path" yaml:"signing_key_path"`
	AdminPort               int       `json:"admin_port" yaml:"admin_port"`
	AdminUser               string    `json:"admin_user" yaml:"admin_user"`
	AdminPasswordHash       string    `json:"admin_password_hash" yaml:"admin_password_hash"`
	ShutdownTimeout         Duration  `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel                string    `json:"log_level" yaml:"log_level"`
	LogFormat               string    `json:"log_format" yaml:"log_format"`
	LogBackend              string    `json:"log_backend" yaml:"log_backend"`
	PublicBaseURL           string    `json:"public_baseurl" yaml:"public_baseurl"`
	Email                   fileEmail `json:"email" yaml:"email"`
}

var errUnknownFormat = errors.New("unsupported config file extension")

// parseFile overlays the JSON or YAML file at path onto config. The format
// follows the file extension.
func parseFile(config *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	fc := toFile(config)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(b, fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, fc)
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, ext)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fromFile(config, fc)
	return nil
}

func toFile(c *Config) *fileConfig {
	return &fileConfig{
		ServerName:              c.ServerName,
		BindHost:                c.BindHost,
		BindPort:                c.BindPort,
		TLSCertFile:             c.TLSCertFile,
		TLSKeyFile:              c.TLSKeyFile,
		DatabaseEngine:          c.DatabaseEngine,
		DatabasePath:            c.DatabasePath,
		DatabaseMaxConns:        c.DatabaseMaxConns,
		WebClient:               c.WebClient,
		RedirectRootToWebClient: c.RedirectRootToWebClient,
		WebClientDir:            c.WebClientDir,
		UploadDir:               c.UploadDir,
		SigningKeyPath:          c.SigningKeyPath,
		AdminPort:               c.AdminPort,
		AdminUser:               c.AdminUser,
		AdminPasswordHash:       c.AdminPasswordHash,
		ShutdownTimeout:         Duration{c.ShutdownTimeout},
		LogLevel:                c.LogLevel,
		LogFormat:               c.LogFormat,
		LogBackend:              c.LogBackend,
		PublicBaseURL:           c.PublicBaseURL,
		Email:                   fileEmail(c.Email),
	}
}

func fromFile(c *Config, fc *fileConfig) {
	c.ServerName = fc.ServerName
	c.BindHost = fc.BindHost
	c.BindPort = fc.BindPort
	c.TLSCertFile = fc.TLSCertFile
	c.TLSKeyFile = fc.TLSKeyFile
	c.DatabaseEngine = fc.DatabaseEngine
	c.DatabasePath = fc.DatabasePath
	c.DatabaseMaxConns = fc.DatabaseMaxConns
	c.WebClient = fc.WebClient
	c.RedirectRootToWebClient = fc.RedirectRootToWebClient
	c.WebClientDir = fc.WebClientDir
	c.UploadDir = fc.UploadDir
	c.SigningKeyPath = fc.SigningKeyPath
	c.AdminPort = fc.AdminPort
	c.AdminUser = fc.AdminUser
	c.AdminPasswordHash = fc.AdminPasswordHash
	c.ShutdownTimeout = fc.ShutdownTimeout.Duration
	c.LogLevel = fc.LogLevel
	c.LogFormat = fc.LogFormat
	c.LogBackend = fc.LogBackend
	c.PublicBaseURL = fc.PublicBaseURL
	c.Email = EmailConfig(fc.Email)
}
