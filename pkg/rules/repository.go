package rules

import (
	"path/filepath"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/spf13/afero"
)

const DefaultPath = ".relix/rules.json"

// Repository loads and persists the ruleset file.
type Repository struct {
	fs   afero.Fs
	path string
}

func NewRepository(path string) *Repository {
	return NewRepositoryFs(afero.NewOsFs(), path)
}

func NewRepositoryFs(fs afero.Fs, path string) *Repository {
	return &Repository{fs: fs, path: path}
}

func (r *Repository) Path() string {
	if strings.TrimSpace(r.path) == "" {
		return DefaultPath
	}
	return r.path
}

// Get is the informational read: a missing or unreadable file yields an
// empty ruleset.
func (r *Repository) Get() *Ruleset {
	rs, err := r.Load()
	if err != nil {
		return Empty()
	}
	return rs
}

// Load reads the ruleset for a run that writes. A missing or blank file is an
// empty ruleset, but a file that exists and cannot be decoded is an error so
// its exclusions are never silently lost. Mistyped fields are dropped and
// listed in Ruleset.Dropped.
func (r *Repository) Load() (*Ruleset, error) {
	path := r.Path()

	exists, err := afero.Exists(r.fs, path)
	if err != nil {
		return nil, errs.Ruleset(path, err, "cannot stat rules file")
	}
	if !exists {
		return Empty(), nil
	}

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, errs.Ruleset(path, err, "cannot read rules file")
	}
	if strings.TrimSpace(string(data)) == "" {
		return Empty(), nil
	}

	rs, err := Parse(data)
	if err != nil {
		return nil, errs.Ruleset(path, err, "rules must be valid JSON")
	}
	return rs, nil
}

// GetRequired fails unless the file exists, parses and defines at least one
// table.
func (r *Repository) GetRequired() (*Ruleset, error) {
	path := r.Path()

	exists, err := afero.Exists(r.fs, path)
	if err != nil {
		return nil, errs.Ruleset(path, err, "cannot stat rules file")
	}
	if !exists {
		return nil, errs.Ruleset(path, nil, "missing rules file; save rules JSON first")
	}

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, errs.Ruleset(path, err, "cannot read rules file")
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errs.Ruleset(path, nil, "rules file is empty")
	}

	rs, err := Parse(data)
	if err != nil {
		return nil, errs.Ruleset(path, err, "rules must be valid JSON")
	}
	if err := rs.CheckDecoded(); err != nil {
		return nil, errs.Ruleset(path, err, "rules contain invalid fields")
	}
	if len(rs.Tables) == 0 {
		return nil, errs.Ruleset(path, nil, "rules must define at least one table in `tables`")
	}
	if err := rs.Validate(); err != nil {
		return nil, errs.Ruleset(path, err, "rules contain invalid column rules")
	}
	return rs, nil
}

// Save validates raw JSON text and writes the normalized document.
func (r *Repository) Save(raw string) (*Ruleset, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errs.Ruleset("", nil, "rules file cannot be empty")
	}

	rs, err := Parse([]byte(raw))
	if err != nil {
		return nil, errs.Ruleset("", err, "rules must be valid JSON")
	}
	if err := rs.CheckDecoded(); err != nil {
		return nil, errs.Ruleset("", err, "rules contain invalid fields")
	}
	if len(rs.Tables) == 0 {
		return nil, errs.Ruleset("", nil, "rules must define at least one table in `tables`")
	}
	if err := rs.Validate(); err != nil {
		return nil, errs.Ruleset("", err, "rules contain invalid column rules")
	}

	if err := r.write(rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// SetExcludedTables replaces the exclusion list of an existing ruleset.
func (r *Repository) SetExcludedTables(tables []string) (*Ruleset, error) {
	rs, err := r.Load()
	if err != nil {
		return nil, err
	}
	if err := rs.CheckDecoded(); err != nil {
		return nil, errs.Ruleset(r.Path(), err, "fix the rules file before saving exclusions")
	}
	rs.ExcludeTables = NormalizeTableList(tables)

	if len(rs.Tables) == 0 {
		return nil, errs.Ruleset(r.Path(), nil, "rules must define at least one table in `tables` before exclusions can be saved")
	}

	if err := r.write(rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func (r *Repository) write(rs *Ruleset) error {
	path := r.Path()

	data, err := rs.Marshal()
	if err != nil {
		return errs.Ruleset(path, err, "cannot encode rules")
	}
	if err := r.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.Ruleset(path, err, "cannot create rules directory")
	}
	if err := afero.WriteFile(r.fs, path, data, 0644); err != nil {
		return errs.Ruleset(path, err, "cannot write rules file")
	}
	return nil
}
