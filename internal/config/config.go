// Package config loads cmd/mcpserve's configuration the way
// fyrsmithlabs-contextd's internal/config/loader.go does: koanf defaults
// overridden by environment variables: everything the host program
// supplies to the core.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Transport selects which transport cmd/mcpserve runs. It has no default;
// it must be set explicitly; there is no default transport.
type Transport string

const (
	TransportHTTP  Transport = "HTTP"
	TransportSTDIO Transport = "STDIO"
)

// Config is the full set of host-supplied configuration values.
type Config struct {
	Mcp struct {
		EndpointPath string `koanf:"endpoint_path"`
		ServerName   string `koanf:"server_name"`
		ServerVer    string `koanf:"server_version"`
		Transport    string `koanf:"transport"`
	} `koanf:"mcp"`

	Session struct {
		MaxUptimeSeconds int64  `koanf:"max_uptime_seconds"`
		InitTimeoutSecs  int64  `koanf:"init_timeout_seconds"`
		TempDir          string `koanf:"temp_dir"`
		Backend          string `koanf:"backend"` // "memory", "file", or "redis"
		RedisAddr        string `koanf:"redis_addr"`
	} `koanf:"session"`

	Log struct {
		AccessPath string `koanf:"access_path"`
		ErrorPath  string `koanf:"error_path"`
		DebugPath  string `koanf:"debug_path"`
	} `koanf:"log"`

	HTTP struct {
		Addr string `koanf:"addr"`
	} `koanf:"http"`
}

// Load reads configuration from environment variables, prefixed MCPSERVE_,
// over hardcoded defaults (fyrsmithlabs-contextd's loader.go precedence
// model, §"AMBIENT STACK" of SPEC_FULL.md).
//
// Example: MCPSERVE_MCP_TRANSPORT=STDIO, MCPSERVE_SESSION_MAX_UPTIME_SECONDS=3600.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider("MCPSERVE_", ".", func(s string) string {
		trimmed := strings.TrimPrefix(s, "MCPSERVE_")
		lower := strings.ToLower(trimmed)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	out := defaults()
	if err := k.Unmarshal("", out); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if out.Mcp.Transport != string(TransportHTTP) && out.Mcp.Transport != string(TransportSTDIO) {
		return nil, fmt.Errorf("mcp.transport must be %q or %q, got %q", TransportHTTP, TransportSTDIO, out.Mcp.Transport)
	}

	return out, nil
}

func defaults() *Config {
	c := &Config{}
	c.Mcp.EndpointPath = "/mcp"
	c.Mcp.ServerName = "mcpserve"
	c.Mcp.ServerVer = "0.1.0"
	c.Mcp.Transport = ""
	c.Session.MaxUptimeSeconds = 24 * 3600
	c.Session.InitTimeoutSecs = 60
	c.Session.TempDir = "/tmp/mcpserve-sessions"
	c.Session.Backend = "memory"
	c.Log.AccessPath = ""
	c.Log.ErrorPath = ""
	c.Log.DebugPath = ""
	c.HTTP.Addr = ":8080"
	return c
}
