// Package config handles loading and validation of switchyard.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/switchyard-systems/switchyard/internal/store/dynamo"
	"github.com/switchyard-systems/switchyard/internal/store/filestore"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// FileName is the project configuration file name.
const FileName = "switchyard.yaml"

// storeConfigs is a helper struct used for a second YAML unmarshal pass to
// decode store-specific config sections into their concrete types.
type storeConfigs struct {
	File     *filestore.Config `yaml:"file,omitempty"`
	DynamoDB *dynamo.Config    `yaml:"dynamodb,omitempty"`
}

// Load reads and parses switchyard.yaml from the given directory.
func Load(dir string) (*types.ProjectConfig, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a raw switchyard.yaml document.
func Parse(data []byte) (*types.ProjectConfig, error) {
	var cfg types.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Second pass: decode store-specific sections into concrete types.
	var raw storeConfigs
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing store config: %w", err)
	}
	if raw.File != nil {
		cfg.File = raw.File
	}
	if raw.DynamoDB != nil {
		cfg.DynamoDB = raw.DynamoDB
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *types.ProjectConfig) error {
	switch cfg.Store {
	case "":
		return fmt.Errorf("store is required")
	case "memory":
	case "file":
		fc, _ := cfg.File.(*filestore.Config)
		if fc == nil {
			return fmt.Errorf("file config is required when store is file")
		}
		if fc.Root == "" {
			return fmt.Errorf("file.root is required")
		}
	case "dynamodb":
		dc, _ := cfg.DynamoDB.(*dynamo.Config)
		if dc == nil {
			return fmt.Errorf("dynamodb config is required when store is dynamodb")
		}
		if dc.TableName == "" {
			return fmt.Errorf("dynamodb.tableName is required")
		}
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}

	for _, sink := range cfg.StreamSinks {
		switch sink.Type {
		case types.SinkChannel:
		case types.SinkWebhook:
			if sink.URL == "" {
				return fmt.Errorf("webhook sink requires url")
			}
		case types.SinkSNS:
			if sink.TopicARN == "" {
				return fmt.Errorf("sns sink requires topicArn")
			}
		default:
			return fmt.Errorf("unknown stream sink type %q", sink.Type)
		}
	}

	if cfg.Approval != nil && cfg.Approval.URL != "" && len(cfg.Approval.Tokens) > 0 {
		return fmt.Errorf("approval.url and approval.tokens are mutually exclusive")
	}
	return nil
}
