package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBaseDirDefault(t *testing.T) {
	t.Setenv(HomeEnv, "")
	home, _ := os.UserHomeDir()
	if got, want := BaseDir(), filepath.Join(home, ".wppmcp"); got != want {
		t.Errorf("BaseDir() = %q, want %q", got, want)
	}
}

func TestBaseDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"config", ConfigPath(), filepath.Join(dir, "config.toml")},
		{"messages db", MessagesDBPath(), filepath.Join(dir, "store", "messages.db")},
		{"whatsapp db", WhatsAppDBPath(), filepath.Join(dir, "store", "whatsapp.db")},
		{"log", LogPath(), filepath.Join(dir, "logs", "wppmcp.log")},
		{"lock dir", LockDir(), dir},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "home")
	t.Setenv(HomeEnv, dir)

	if err := EnsureDir(); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(LogDir())
	if err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("log dir is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("log dir permission = %o, want 0700", perm)
	}
}
