package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// RoutesFile is the shape of the optional TOML routes override:
//
//	default_chain = ["openai", "local"]
//
//	[routes]
//	ocr_extract = ["deepseek", "openai", "local"]
//	code_review = ["anthropic", "openai"]
type RoutesFile struct {
	DefaultChain []string            `toml:"default_chain"`
	Routes       map[string][]string `toml:"routes"`
}

// LoadRoutesFile parses the TOML routes file at path.
func LoadRoutesFile(path string) (*RoutesFile, error) {
	var rf RoutesFile
	if _, err := toml.DecodeFile(path, &rf); err != nil {
		return nil, fmt.Errorf("parse routes file %s: %w", path, err)
	}
	for task, chain := range rf.Routes {
		if len(chain) == 0 {
			return nil, fmt.Errorf("routes file %s: task %q has an empty chain", path, task)
		}
	}
	return &rf, nil
}
