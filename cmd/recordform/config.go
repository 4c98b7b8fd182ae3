package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk CLI configuration.
type Config struct {
	// Endpoint is the GraphQL endpoint; empty uses the service default.
	Endpoint string `yaml:"endpoint,omitempty"`
	// Token authenticates every request.
	Token string `yaml:"token"`
	// Collection is the record collection the form writes to.
	Collection string `yaml:"collection"`
	// MetadataCollection holds the layout documents.
	MetadataCollection string `yaml:"metadataCollection"`
	// PageLimit caps listings; zero uses the client default.
	PageLimit int `yaml:"pageLimit,omitempty"`
}

func loadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Token == "" {
		return errors.New("config: token is required")
	}
	if c.Collection == "" {
		return errors.New("config: collection is required")
	}
	if c.MetadataCollection == "" {
		return errors.New("config: metadataCollection is required")
	}
	return nil
}
