// Package config loads create-time defaults for an image store from a
// JSON-with-comments file, so operators can check a config file into
// source control with explanatory comments intact.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// CreateDefaults mirrors the flags accepted by "imgstore create".
type CreateDefaults struct {
	MaxFiles uint32    `json:"max_files"`
	ThumbRes [2]uint16 `json:"thumb_res"`
	SmallRes [2]uint16 `json:"small_res"`
}

// Load reads and standardises a hujson (JSON-with-comments) file at path
// into a CreateDefaults value.
func Load(path string) (*CreateDefaults, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	standard, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	var defaults CreateDefaults
	if err := json.Unmarshal(standard, &defaults); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return &defaults, nil
}
