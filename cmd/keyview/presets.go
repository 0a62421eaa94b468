package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/chromakey"
)

// loadPresets reads a YAML mapping of preset name to parameters:
//
//	studio:
//	  similarity: 0.38
//	  smoothness: 0.06
//	  spill: 0.2
//
// Values are clamped by the controller when applied, so a sloppy file
// cannot break the keyer.
func loadPresets(path string) ([]namedPreset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	var m map[string]chromakey.Parameters
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sortPresets(m), nil
}
