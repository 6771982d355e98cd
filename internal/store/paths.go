package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the name of the verdant data directory.
const DirName = ".verdant"

// GlobalVerdantPath returns the path to the global .verdant directory.
// On Unix: ~/.verdant
// On Windows: %USERPROFILE%\.verdant
func GlobalVerdantPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// LocalVerdantPath returns the path to the .verdant directory under root.
func LocalVerdantPath(root string) string {
	return filepath.Join(root, DirName)
}

// EnsureGlobalVerdantDir creates the global .verdant directory if it doesn't exist.
func EnsureGlobalVerdantDir() error {
	globalPath, err := GlobalVerdantPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(globalPath, 0700); err != nil {
		return fmt.Errorf("failed to create global .verdant directory: %w", err)
	}

	return nil
}
