package cli

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
)

const defaultEnvFile = ".env"

// envOptions finds --env-file and --env-override in argv. The env file has
// to be loaded before flags are parsed because secrets are resolved from
// environment variables during parsing.
func envOptions(argv []string) (path string, override bool) {
	path = os.Getenv("REEL_ENV_FILE")
	if path == "" {
		path = defaultEnvFile
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--":
			return path, override
		case arg == "--env-override" || arg == "--env-override=true":
			override = true
		case arg == "--env-file" && i+1 < len(argv):
			path = argv[i+1]
			i++
		case strings.HasPrefix(arg, "--env-file="):
			path = strings.TrimPrefix(arg, "--env-file=")
		}
	}
	return path, override
}

// loadEnv reads a dotenv file into the process environment. A missing file
// is not an error. Existing variables win unless override is set.
func loadEnv(path string, override bool) error {
	if path == "" {
		return nil
	}

	load := godotenv.Load
	if override {
		load = godotenv.Overload
	}

	if err := load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to load env file", goerr.V("path", path))
	}
	return nil
}
