// Package config handles configuration loading and management for hitreq.
//
// It provides functionality for:
//   - Loading configuration from .hitreq.json or .hitreq.yaml files
//   - Default configuration values
//   - Mapping settings onto HTTP client options
package config
