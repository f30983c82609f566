package cobalt

import (
	"encoding/json"
	"fmt"
)

// ServiceStatus is the instance information served at the instance root.
type ServiceStatus struct {
	Cobalt Instance `json:"cobalt"`
	Git    Git      `json:"git"`
}

// Instance describes the running cobalt process.
type Instance struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	// StartTime is kept exactly as served.
	StartTime     string   `json:"startTime"`
	DurationLimit uint64   `json:"durationLimit"`
	Services      []string `json:"services"`
}

// Git is the build provenance of the instance.
type Git struct {
	Branch string `json:"branch"`
	Commit string `json:"commit"`
	Remote string `json:"remote"`
}

// ParseStatus decodes a status payload. Every field is required.
func ParseStatus(data []byte) (*ServiceStatus, error) {
	root, err := object(data)
	if err != nil {
		return nil, err
	}

	if err := root.require("cobalt", "git"); err != nil {
		return nil, err
	}

	instance, err := object(root["cobalt"])
	if err != nil {
		return nil, fmt.Errorf("field cobalt: %w", err)
	}

	if err := instance.require("version", "url", "startTime", "durationLimit", "services"); err != nil {
		return nil, fmt.Errorf("field cobalt: %w", err)
	}

	git, err := object(root["git"])
	if err != nil {
		return nil, fmt.Errorf("field git: %w", err)
	}

	if err := git.require("branch", "commit", "remote"); err != nil {
		return nil, fmt.Errorf("field git: %w", err)
	}

	var status ServiceStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}

	return &status, nil
}
