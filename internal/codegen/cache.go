package codegen

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

const (
	cacheFileName = ".relix_cache.json"
	cacheVersion  = "1.0"
)

// generationCache remembers what was last written so hand edits to generated
// files can be told apart from stale output.
type generationCache struct {
	Version        string            `json:"version"`
	SchemaChecksum string            `json:"schema_checksum"`
	Files          map[string]string `json:"files"` // file name → checksum
	LastGeneration time.Time         `json:"last_generation"`

	fs   afero.Fs
	path string
}

func loadCache(fs afero.Fs, dir string) *generationCache {
	c := &generationCache{
		Version: cacheVersion,
		Files:   make(map[string]string),
		fs:      fs,
		path:    filepath.Join(dir, cacheFileName),
	}

	data, err := afero.ReadFile(fs, c.path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, c); err != nil || c.Version != cacheVersion {
		// unreadable or old format, start over
		c.Version = cacheVersion
		c.SchemaChecksum = ""
		c.Files = make(map[string]string)
	}
	if c.Files == nil {
		c.Files = make(map[string]string)
	}
	return c
}

func checksum(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// fileChecksum hashes the file on disk; ok is false when it does not exist.
func (c *generationCache) fileChecksum(name string) (string, bool, error) {
	data, err := afero.ReadFile(c.fs, filepath.Join(filepath.Dir(c.path), name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return checksum(data), true, nil
}

// handEdited reports whether a file exists but no longer matches what was
// last generated for it.
func (c *generationCache) handEdited(name string) (bool, error) {
	current, exists, err := c.fileChecksum(name)
	if err != nil || !exists {
		return false, err
	}
	recorded, known := c.Files[name]
	if !known {
		// written by someone else
		return true, nil
	}
	return recorded != current, nil
}

func (c *generationCache) record(name string, content []byte) {
	c.Files[name] = checksum(content)
}

func (c *generationCache) save(now time.Time) error {
	c.LastGeneration = now
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(c.fs, c.path, data, 0644)
}
