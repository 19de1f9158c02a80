package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Preferences are the fintrack tool's saved defaults. Flags override
// them; they override the built-in defaults. Daemons ignore this file
// entirely and configure from the environment.
type Preferences struct {
	Defaults DefaultsPrefs `toml:"defaults"`
	Output   OutputPrefs   `toml:"output"`
}

// DefaultsPrefs selects the backend the tool opens when no flag says
// otherwise.
type DefaultsPrefs struct {
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir,omitempty"`
	DBPath  string `toml:"db_path,omitempty"`
}

// OutputPrefs holds presentation settings.
type OutputPrefs struct {
	Quiet bool `toml:"quiet"`
}

// DefaultPreferences is what a fresh install behaves like.
func DefaultPreferences() Preferences {
	return Preferences{
		Defaults: DefaultsPrefs{
			Backend: "file",
		},
	}
}

// PrefsDir returns the XDG-compliant config directory.
func PrefsDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fintrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fintrack")
}

// PrefsPath returns the full path to the preferences file.
func PrefsPath() string {
	return filepath.Join(PrefsDir(), "config.toml")
}

// LoadPreferences reads the preferences file, returning defaults if it
// doesn't exist.
func LoadPreferences() (Preferences, error) {
	prefs := DefaultPreferences()

	data, err := os.ReadFile(PrefsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("reading preferences: %w", err)
	}

	if err := toml.Unmarshal(data, &prefs); err != nil {
		return prefs, fmt.Errorf("parsing preferences: %w", err)
	}

	return prefs, nil
}

// SavePreferences writes the preferences to disk.
func SavePreferences(prefs Preferences) error {
	dir := PrefsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating preferences dir: %w", err)
	}

	f, err := os.OpenFile(PrefsPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating preferences file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(prefs)
}
