package tickers

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileProvider reads ticker groups from a YAML (or JSON) document mapping
// group names to symbol lists. The file is re-read on every call.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) TickerLists(ctx context.Context) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read ticker file: %w", err)
	}
	var lists map[string][]string
	if err := yaml.Unmarshal(b, &lists); err != nil {
		return nil, fmt.Errorf("parse ticker file %s: %w", p.path, err)
	}
	if len(lists) == 0 {
		return nil, fmt.Errorf("ticker file %s has no groups", p.path)
	}
	return clean(lists), nil
}
