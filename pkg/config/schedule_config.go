// Package config provides configuration loading for scheduled workflow starts.
package config

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ScheduleConfigFile represents the structure of a schedules.yaml file.
type ScheduleConfigFile struct {
	Schedules []Schedule `yaml:"schedules"`
}

// Schedule starts Workflow every time Cron fires.
type Schedule struct {
	Cron     string `yaml:"cron"`
	Workflow string `yaml:"workflow"`
}

// LoadScheduleConfig loads and validates a schedules file.
func LoadScheduleConfig(filepath string) ([]Schedule, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var configFile ScheduleConfigFile
	if err := yaml.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := ValidateSchedules(configFile.Schedules); err != nil {
		return nil, err
	}

	return configFile.Schedules, nil
}

// ValidateSchedules checks every entry has a workflow and a parseable
// five-field cron expression.
func ValidateSchedules(schedules []Schedule) error {
	if len(schedules) == 0 {
		return fmt.Errorf("at least one schedule must be configured")
	}

	for i, schedule := range schedules {
		if schedule.Workflow == "" {
			return fmt.Errorf("schedules[%d]: workflow is required", i)
		}

		if schedule.Cron == "" {
			return fmt.Errorf("schedules[%d]: cron is required", i)
		}

		if _, err := cron.ParseStandard(schedule.Cron); err != nil {
			return fmt.Errorf("schedules[%d]: invalid cron expression %q: %w", i, schedule.Cron, err)
		}
	}

	return nil
}
