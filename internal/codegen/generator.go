// Package codegen writes a Go seeding program for a schema: one function per
// table plus SeedAll, which calls them in foreign key order.
package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
	"github.com/Lumos-Labs-HQ/relix/pkg/seeder"
	"github.com/fatih/color"
	"github.com/jinzhu/inflection"
	"github.com/spf13/afero"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultOut     = "db/seeds"
	DefaultPackage = "seeds"
	seedAllFile    = "seed_all.go"
)

type Options struct {
	Out     string
	Package string
	// Count overrides every per-table count when positive.
	Count        int
	DefaultCount int
	Ignore       []string
	// Force overwrites generated files that were edited by hand.
	Force bool
}

type Result struct {
	Path      string
	Generated []string
	Unchanged []string
	Kept      []string
	Skipped   []string
}

type Generator struct {
	fs     afero.Fs
	out    io.Writer
	now    func() time.Time
	titler cases.Caser
}

func New() *Generator {
	return NewWithFs(afero.NewOsFs(), os.Stdout)
}

func NewWithFs(fs afero.Fs, out io.Writer) *Generator {
	return &Generator{
		fs:     fs,
		out:    out,
		now:    time.Now,
		titler: cases.Title(language.English),
	}
}

type tableData struct {
	Package  string
	Table    string
	Func     string
	File     string
	Count    int
	Junction bool
}

type seedAllData struct {
	Package string
	Tables  []tableData
	Cyclic  []string
}

// Generate renders the program for every table not ignored by opts or
// excluded by the ruleset.
func (g *Generator) Generate(s *schema.Schema, rs *rules.Ruleset, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	if !validPackage(opts.Package) {
		return nil, fmt.Errorf("invalid package name %q", opts.Package)
	}

	ignored := make(map[string]bool)
	for _, t := range rules.NormalizeTableList(append(append([]string{}, opts.Ignore...), rs.Excluded()...)) {
		ignored[t] = true
	}

	res := &Result{Path: opts.Out}
	var tables []schema.Table
	for _, t := range s.Tables {
		if ignored[t.Name] {
			res.Skipped = append(res.Skipped, t.Name)
			continue
		}
		tables = append(tables, t)
	}
	ordered, cyclic := seeder.OrderWithCycles(tables)

	if err := g.fs.MkdirAll(opts.Out, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", opts.Out, err)
	}
	cache := loadCache(g.fs, opts.Out)

	names := newNamer(g.titler)
	all := seedAllData{Package: opts.Package, Cyclic: cyclic}
	for i := range ordered {
		t := &ordered[i]
		data := tableData{
			Package:  opts.Package,
			Table:    t.Name,
			Func:     names.funcName(t.Name),
			Count:    tableCount(t.Name, rs, opts),
			Junction: t.IsJunction(),
		}
		data.File = fileName(data.Func)
		all.Tables = append(all.Tables, data)

		if err := g.emit(cache, res, data.File, tableTemplate, data, opts.Force); err != nil {
			return nil, err
		}
	}
	if err := g.emit(cache, res, seedAllFile, seedAllTemplate, all, opts.Force); err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	cache.SchemaChecksum = checksum(snapshot)
	if err := cache.save(g.now()); err != nil {
		return nil, fmt.Errorf("failed to save generation cache: %w", err)
	}
	return res, nil
}

func (g *Generator) emit(cache *generationCache, res *Result, name string, tmpl *template.Template, data interface{}, force bool) error {
	content, err := render(tmpl, data)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	current, exists, err := cache.fileChecksum(name)
	if err != nil {
		return err
	}
	if exists && current == checksum(content) {
		cache.record(name, content)
		res.Unchanged = append(res.Unchanged, name)
		fmt.Fprintf(g.out, "⏭️  Skipping %s (unchanged)\n", name)
		return nil
	}

	if !force {
		edited, err := cache.handEdited(name)
		if err != nil {
			return err
		}
		if edited {
			res.Kept = append(res.Kept, name)
			color.New(color.FgYellow).Fprintf(g.out, "⚠️  Keeping %s (edited by hand, use --force to overwrite)\n", name)
			return nil
		}
	}

	fmt.Fprintf(g.out, "🔄 Generating %s\n", name)
	if err := afero.WriteFile(g.fs, filepath.Join(res.Path, name), content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	cache.record(name, content)
	res.Generated = append(res.Generated, name)
	return nil
}

func render(tmpl *template.Template, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

func withDefaults(opts Options) Options {
	if opts.Out == "" {
		opts.Out = DefaultOut
	}
	if opts.Package == "" {
		opts.Package = DefaultPackage
	}
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = seeder.DefaultCount
	}
	return opts
}

func tableCount(table string, rs *rules.Ruleset, opts Options) int {
	if opts.Count > 0 {
		return opts.Count
	}
	if n, ok := rs.TableCount(table); ok {
		return n
	}
	return opts.DefaultCount
}

type namer struct {
	titler cases.Caser
	used   map[string]int
}

func newNamer(titler cases.Caser) *namer {
	return &namer{titler: titler, used: make(map[string]int)}
}

// funcName turns "post_tags" into "SeedPostTag", numbering collisions.
func (n *namer) funcName(table string) string {
	name := "Seed" + n.studly(inflection.Singular(table))
	n.used[name]++
	if c := n.used[name]; c > 1 {
		name = fmt.Sprintf("%s%d", name, c)
	}
	return name
}

func (n *namer) studly(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(n.titler.String(p))
	}
	if b.Len() == 0 {
		return "Table"
	}
	return b.String()
}

// fileName derives a snake_case file name that never ends in an OS or arch
// suffix the go tool would treat as a build constraint.
func fileName(funcName string) string {
	var b strings.Builder
	for i, r := range strings.TrimPrefix(funcName, "Seed") {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String() + "_seed.go"
}

func validPackage(pkg string) bool {
	if pkg == "" || pkg == "_" {
		return false
	}
	for i, r := range pkg {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

// Files lists every file the result accounts for, sorted.
func (r *Result) Files() []string {
	names := append(append([]string{}, r.Generated...), r.Unchanged...)
	names = append(names, r.Kept...)
	sort.Strings(names)
	return names
}
