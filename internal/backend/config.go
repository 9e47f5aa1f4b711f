package backend

import (
	"errors"
	"fmt"

	"masarify/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath    string
	SnapshotHistory int

	// GCS specific
	GCSBucket       string
	GCSPrefix       string
	CredentialsJSON string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	cfg := Config{
		Type:            backendType,
		SQLiteDBPath:    appConfig.SQLiteDBPath,
		SnapshotHistory: appConfig.SnapshotHistory,
		GCSBucket:       appConfig.GCSBucket,
		GCSPrefix:       appConfig.GCSPrefix,
	}
	if backendType == GCSBackend {
		creds, err := appConfig.GoogleCredentials()
		if err != nil {
			return Config{}, err
		}
		cfg.CredentialsJSON = creds
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case GCSBackend:
		if c.GCSBucket == "" {
			return errors.New("GCS bucket is required for gcs backend")
		}
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := []BackendType{SQLiteBackend, GCSBackend, MemoryBackend}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
