// Package cmd implements the hitreq CLI commands using Cobra.
//
// Available commands:
//   - get, post, put, patch, delete, head, options: issue one request
//   - json: GET a URL and print the decoded JSON body
//   - bench: repeat a request and report latency percentiles
//   - stub: serve canned responses from a YAML route file
//   - history: list recorded requests
//   - version: Show hitreq version information
package cmd
