package agoratest

import (
	"path/filepath"
	"testing"

	"github.com/lunagic/agora/agora"
)

// NewConfig is the default config pointed at throwaway files and in-memory
// drivers, listening on a random port.
func NewConfig(t *testing.T) agora.AppConfig {
	config := agora.NewConfig()
	config.AppHTTPPort = 0
	config.AppDriverDatabase = "sqlite"
	config.AppDriverCache = "memory"
	config.AppDriverQueue = "memory"
	config.AppDriverMailer = "memory"
	config.AppDriverStorage = "local"
	config.SQLitePath = filepath.Join(t.TempDir(), "database.sqlite")
	config.StorageLocalDirectory = filepath.Join(t.TempDir(), "storage")

	return config
}
