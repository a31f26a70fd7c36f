// Package config handles configuration loading for voyager-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${VOYAGER_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	session:
//	  ttl: "30m"
//	  turn_deadline: "30s"
//
//	retry:
//	  base_backoff: "1s"
//	  call_timeout: "10s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database (optional durable conversation store; in-memory only when unset):
//
//	database:
//	  path: "/var/lib/voyager/gateway.db"
//
// Interpreter (LLM collaborator):
//
//	interpreter:
//	  endpoint: "https://llm.example.com/v1"
//	  api_key: "${VOYAGER_LLM_KEY}"
//	  model: "gpt-4"
//
// Providers (one backing API per travel capability):
//
//	providers:
//	  flights:
//	    base_url: "https://flights.example.com"
//	    api_key: "${VOYAGER_FLIGHTS_KEY}"
//	  hotels: ...
//	  restaurants: ...
//	  excursions: ...
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load from a specific path:
//
//	cfg, err := config.Load("/etc/voyager/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
