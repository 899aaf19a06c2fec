// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials. Keys come from three
// places, in order of precedence: the process environment, a .env file,
// and a directory of plain-text files where each filename is the key name
// and the file contents (trimmed) are the value.
//
// Supported key files: google-api-key, openai-api-key, google-search-api-key,
// google-search-engine-id.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/subosito/gotenv"
)

// Credential names as they appear in the environment and in .env files.
const (
	GoogleAPIKey         = "GOOGLE_API_KEY"
	OpenAIAPIKey         = "OPENAI_API_KEY"
	GoogleSearchAPIKey   = "GOOGLE_SEARCH_API_KEY"
	GoogleSearchEngineID = "GOOGLE_SEARCH_ENGINE_ID"
)

// fileKeys maps each credential to its file name in the secrets directory.
var fileKeys = map[string]string{
	GoogleAPIKey:         "google-api-key",
	OpenAIAPIKey:         "openai-api-key",
	GoogleSearchAPIKey:   "google-search-api-key",
	GoogleSearchEngineID: "google-search-engine-id",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotEnv parses a .env file without touching the process environment.
// A missing file yields an empty map.
func LoadDotEnv(path string) (map[string]string, error) {
	env, err := gotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return env, nil
}

// Credentials holds resolved credential values and where each came from.
type Credentials struct {
	values  map[string]string
	sources map[string]string
}

// Sources names the places Resolve looks at.
type Sources struct {
	// LookupEnv reads the process environment. Nil skips it.
	LookupEnv func(string) (string, bool)
	DotEnv    string
	Dir       string
}

// Resolve reads every known credential from src.
func Resolve(src Sources) (Credentials, error) {
	dotEnv := map[string]string{}
	if src.DotEnv != "" {
		var err error
		if dotEnv, err = LoadDotEnv(src.DotEnv); err != nil {
			return Credentials{}, err
		}
	}
	files := map[string]string{}
	if src.Dir != "" {
		var err error
		if files, err = Load(src.Dir); err != nil {
			return Credentials{}, err
		}
	}

	c := Credentials{values: map[string]string{}, sources: map[string]string{}}
	for name, file := range fileKeys {
		if src.LookupEnv != nil {
			if v, ok := src.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
				c.set(name, strings.TrimSpace(v), "environment")
				continue
			}
		}
		if v := strings.TrimSpace(dotEnv[name]); v != "" {
			c.set(name, v, src.DotEnv)
			continue
		}
		if v := files[file]; v != "" {
			c.set(name, v, filepath.Join(src.Dir, file))
		}
	}
	return c, nil
}

func (c Credentials) set(name, value, source string) {
	c.values[name] = value
	c.sources[name] = source
}

// Get returns the value of name, or "" when it is not configured.
func (c Credentials) Get(name string) string {
	return c.values[name]
}

// Has reports whether every name is configured.
func (c Credentials) Has(names ...string) bool {
	for _, n := range names {
		if c.values[n] == "" {
			return false
		}
	}
	return true
}

// Source returns where name was found.
func (c Credentials) Source(name string) string {
	return c.sources[name]
}

// Require returns an error naming the first missing credential.
func (c Credentials) Require(names ...string) error {
	for _, n := range names {
		if c.values[n] == "" {
			return fmt.Errorf("missing credential %s (set it in the environment, a .env file, or .secrets/%s)", n, fileKeys[n])
		}
	}
	return nil
}
