// Package paths locates wppmcp's own files under ~/.wppmcp.
package paths

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the base directory, mostly for tests and containers.
const HomeEnv = "WPPMCP_HOME"

// BaseDir returns $WPPMCP_HOME, or ~/.wppmcp.
func BaseDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wppmcp")
}

// ConfigPath returns the config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// StoreDir returns the default directory of the bridge databases.
func StoreDir() string {
	return filepath.Join(BaseDir(), "store")
}

// MessagesDBPath returns the default messages.db path.
func MessagesDBPath() string {
	return filepath.Join(StoreDir(), "messages.db")
}

// WhatsAppDBPath returns the default whatsapp.db path.
func WhatsAppDBPath() string {
	return filepath.Join(StoreDir(), "whatsapp.db")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the server log file path.
func LogPath() string {
	return filepath.Join(LogDir(), "wppmcp.log")
}

// LockDir returns the directory whose lock an HTTP-mode server holds.
func LockDir() string {
	return BaseDir()
}

// EnsureDir creates the base and log directories with owner-only
// permissions.
func EnsureDir() error {
	for _, d := range []string{BaseDir(), LogDir()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
