package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"releaseguard.app/guard/internal/service"
)

type windowFile struct {
	Windows []windowEntry `yaml:"windows"`
}

type windowEntry struct {
	Branch    string `yaml:"branch"`
	StartsAt  string `yaml:"starts_at"`
	EndsAt    string `yaml:"ends_at"`
	Reason    string `yaml:"reason"`
	CreatedBy string `yaml:"created_by"`
}

// parseWindowFile decodes a windows YAML document and resolves every timestamp
// in loc relative to now. Unknown keys are rejected so typos do not silently
// drop a field. Errors name the 1-based entry they come from.
func parseWindowFile(r io.Reader, loc *time.Location, now time.Time) ([]service.CreateBlockWindowParams, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file windowFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no windows in file")
		}
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if len(file.Windows) == 0 {
		return nil, errors.New("no windows in file")
	}

	params := make([]service.CreateBlockWindowParams, 0, len(file.Windows))
	for i, e := range file.Windows {
		if strings.TrimSpace(e.Branch) == "" {
			return nil, fmt.Errorf("window %d: branch is required", i+1)
		}
		startsAt, err := service.ParseNaturalTimestamp(e.StartsAt, loc, now)
		if err != nil {
			return nil, fmt.Errorf("window %d: starts_at: %w", i+1, err)
		}
		endsAt, err := service.ParseNaturalTimestamp(e.EndsAt, loc, now)
		if err != nil {
			return nil, fmt.Errorf("window %d: ends_at: %w", i+1, err)
		}
		if endsAt.Before(startsAt) {
			return nil, fmt.Errorf("window %d: ends_at is before starts_at", i+1)
		}
		params = append(params, service.CreateBlockWindowParams{
			Branch:    strings.TrimSpace(e.Branch),
			StartsAt:  startsAt,
			EndsAt:    endsAt,
			Reason:    e.Reason,
			CreatedBy: e.CreatedBy,
		})
	}
	return params, nil
}
