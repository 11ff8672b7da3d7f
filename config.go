package splunk

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultScheme  = "https"
	defaultHost    = "localhost"
	defaultPort    = 8089
	defaultTimeout = 30 * time.Second
)

// Config describes how to reach and authenticate against a splunkd
// management port.
type Config struct {
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`

	// Token is sent verbatim in the Authorization header, e.g.
	// "Splunk <session key>" or "Bearer <token>".
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Owner and App select the servicesNS namespace for relative paths.
	Owner string `yaml:"owner"`
	App   string `yaml:"app"`

	InsecureSkipVerify bool          `yaml:"insecureSkipVerify"`
	Timeout            time.Duration `yaml:"timeout"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Scheme:  defaultScheme,
		Host:    defaultHost,
		Port:    defaultPort,
		Timeout: defaultTimeout,
	}
}

// LoadConfig reads a YAML file and applies it on top of the defaults.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", filename)
	}
	var fc Config
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, errors.Wrapf(err, "could not unmarshal config file %s", filename)
	}
	cfg := NewDefaultConfig()
	cfg.Apply(&fc)
	return cfg, nil
}

// Apply overwrites fields of c with the non-zero fields of other.
func (c *Config) Apply(other *Config) {
	if other == nil {
		return
	}
	if other.Scheme != "" {
		c.Scheme = other.Scheme
	}
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.Token != "" {
		c.Token = other.Token
	}
	if other.Username != "" {
		c.Username = other.Username
	}
	if other.Password != "" {
		c.Password = other.Password
	}
	if other.Owner != "" {
		c.Owner = other.Owner
	}
	if other.App != "" {
		c.App = other.App
	}
	if other.InsecureSkipVerify {
		c.InsecureSkipVerify = true
	}
	if other.Timeout != 0 {
		c.Timeout = other.Timeout
	}
}

func (c *Config) Check() error {
	if c.Scheme != "http" && c.Scheme != "https" {
		return fmt.Errorf("invalid Scheme=%q, must be http or https", c.Scheme)
	}
	if c.Host == "" {
		return fmt.Errorf("invalid Host, must be non-empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid Port=%d, must be in 1..65535", c.Port)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid Timeout=%s, must be >= 0", c.Timeout)
	}
	if (c.Owner == "") != (c.App == "") {
		return fmt.Errorf("invalid namespace owner=%q app=%q, both or neither must be set", c.Owner, c.App)
	}
	return nil
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) String() string {
	return fmt.Sprintf("{Scheme=%s, Addr=%s, Owner=%s, App=%s, Timeout=%s}",
		c.Scheme, c.Addr(), c.Owner, c.App, c.Timeout)
}
