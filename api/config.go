// Package api provides an HTTP API server for feeding chat events to the
// innerself engine and inspecting the minds it tracks.
package api

import "github.com/papercomputeco/innerself/pkg/eventstream/hub"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8082")
	ListenAddr string

	// Events, when set, backs the /stream endpoint. The engine's publisher
	// must feed the same hub.
	Events *hub.Hub
}
