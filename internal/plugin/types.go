// Package plugin discovers and runs external recognizer programs. A plugin is
// a directory holding a plugin.json manifest and an executable that reads one
// JSON request on stdin and writes one JSON response on stdout.
package plugin

import "encoding/json"

// KindDigits is the recognition kind of plugins reading HUD counters.
const KindDigits = "digits"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Recognizes   []string        `json:"recognizes"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is sent to a plugin for one image region. Image holds PNG bytes and
// travels base64 encoded.
type Request struct {
	Kind   string          `json:"kind"`
	Image  []byte          `json:"image"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Reading is one number a plugin found, with the top-left corner of its first
// glyph relative to the submitted image.
type Reading struct {
	Value int `json:"value"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success  bool      `json:"success"`
	Error    string    `json:"error,omitempty"`
	Readings []Reading `json:"readings,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the plugin handles a recognition kind.
func (p *Plugin) Supports(kind string) bool {
	for _, k := range p.Manifest.Recognizes {
		if k == kind {
			return true
		}
	}
	return false
}
