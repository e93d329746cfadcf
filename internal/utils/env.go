package utils

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// LoadEnv loads a dotenv file into the process environment without
// overriding variables that are already set. An empty path looks for .env
// in the project root. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		root, err := FindProjectRoot()
		if err != nil {
			root, err = os.Getwd()
			if err != nil {
				return err
			}
		}
		path = filepath.Join(root, ".env")
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ReadEnvFile parses a dotenv file without touching the process environment.
func ReadEnvFile(path string) (map[string]string, error) {
	return godotenv.Read(path)
}
