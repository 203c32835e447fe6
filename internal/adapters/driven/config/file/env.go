package file

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// DotEnvFile is the file read by LoadDotEnv when no path is given.
const DotEnvFile = ".env"

// LoadDotEnv reads KEY=VALUE pairs into the process environment.
// Variables already set are left alone, and a missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DotEnvFile}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}
