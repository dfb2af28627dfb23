// Package config handles configuration loading for research-manager.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion, duration parsing, and validation of required fields.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${RM_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/research-manager/research.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${RM_JWT_SECRET}"  # required
//	  token_ttl: "24h"                # Go duration syntax
//
// Uploads:
//
//	upload:
//	  max_bytes: 10485760
//
// Tailscale (serve on a tailnet instead of a local address):
//
//	tailscale:
//	  enabled: false
//	  hostname: "research-manager"
//	  auth_key: "${TS_AUTHKEY}"
//	  state_dir: "/var/lib/research-manager/tsnet"
//	  ephemeral: false
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
//	cfg, err := config.Load("/etc/research-manager/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
