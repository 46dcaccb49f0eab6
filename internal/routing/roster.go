package routing

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RosterSource supplies the current agent list. The engine treats the
// returned slice as read-only for the duration of one assignment call.
type RosterSource interface {
	Roster(ctx context.Context) ([]Agent, error)
}

// FileRoster loads agents from a YAML file on every call so operators
// can edit the roster without a restart.
type FileRoster struct {
	path string
}

// NewFileRoster builds a roster source backed by a YAML file.
func NewFileRoster(path string) *FileRoster {
	return &FileRoster{path: path}
}

type rosterDocument struct {
	Agents []Agent `yaml:"agents"`
}

func (r *FileRoster) Roster(_ context.Context) ([]Agent, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", r.path, err)
	}

	var doc rosterDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", r.path, err)
	}

	for i, agent := range doc.Agents {
		if agent.ID == "" {
			return nil, fmt.Errorf("roster %s: agent at position %d has no id", r.path, i)
		}
	}
	return doc.Agents, nil
}

// StaticRoster serves a fixed agent list. Used in tests and as a
// fallback when no roster file is configured.
type StaticRoster []Agent

func (r StaticRoster) Roster(_ context.Context) ([]Agent, error) {
	return r, nil
}
