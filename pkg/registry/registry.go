// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var (
	ErrDuplicateTaskType = errors.New("DUPLICATE_TASK_TYPE")
	ErrInvalidActivity   = errors.New("INVALID_ACTIVITY")
	ErrEmptyBucket       = errors.New("EMPTY_BUCKET")
)

func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a registry document.
func Parse(data []byte) (*Registry, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate rejects duplicate task types, unparsable timeouts and keyword-less buckets.
func (r *Registry) Validate() error {
	seen := make(map[string]bool, len(r.Activities))
	for i, a := range r.Activities {
		if strings.TrimSpace(a.TaskType) == "" {
			return fmt.Errorf("%w: activities[%d] has no taskType", ErrInvalidActivity, i)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("%w: %s", ErrDuplicateTaskType, a.TaskType)
		}
		seen[a.TaskType] = true
		if _, err := a.TimeoutDuration(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidActivity, a.TaskType, err)
		}
		if a.Retries < 0 {
			return fmt.Errorf("%w: %s: negative retries", ErrInvalidActivity, a.TaskType)
		}
	}
	for key, keywords := range r.Buckets {
		nonEmpty := 0
		for _, kw := range keywords {
			if strings.TrimSpace(kw) != "" {
				nonEmpty++
			}
		}
		if nonEmpty == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyBucket, key)
		}
	}
	return nil
}

// Find returns the activity registered for taskType.
func (r *Registry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// TimeoutDuration parses Timeout. An empty value means no override.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", a.Timeout)
	}
	return d, nil
}
