package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadDotEnv exports the variables from the given .env files so that Load
// sees them as CONCENTRATION_* overrides. Missing files are skipped and
// variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		err := godotenv.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("unable to load %s: %w", path, err)
		}
	}
	return nil
}
