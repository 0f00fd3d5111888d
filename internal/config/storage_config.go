package config

// StorageConfig defines configuration for the SQLite store
type StorageConfig struct {
	DatabasePath string `json:"database_path,omitempty" yaml:"database_path,omitempty" validate:"required"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DatabasePath: DefaultStorageDatabasePath,
	}
}
