package codegen

import "text/template"

var tableTemplate = template.Must(template.New("table").Parse(`// Code generated by relix. Edits survive regeneration unless --force is used.

package {{.Package}}

import (
	"context"

	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/seeder"
)

// {{.Func}} fills the {{.Table}} table{{if .Junction}} (pivot){{end}}.
func {{.Func}}(ctx context.Context, b *seeder.Batch, rs *rules.Ruleset) (*seeder.TableResult, error) {
	return b.SeedTable(ctx, {{printf "%q" .Table}}, rs, seeder.SeedOptions{Count: {{.Count}}})
}
`))

var seedAllTemplate = template.Must(template.New("all").Parse(`// Code generated by relix. Edits survive regeneration unless --force is used.

package {{.Package}}

import (
	"context"

	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
	"github.com/Lumos-Labs-HQ/relix/pkg/seeder"
)

// Order is the foreign key safe insertion order used by SeedAll.
var Order = []string{
{{- range .Tables}}
	{{printf "%q" .Table}},
{{- end}}
}
{{if .Cyclic}}
// Cyclic lists tables caught in a foreign key cycle; their relative order is
// not guaranteed to satisfy every constraint.
var Cyclic = []string{
{{- range .Cyclic}}
	{{printf "%q" .}},
{{- end}}
}
{{end}}
// SeedAll seeds every table in Order within one batch, so unique values hold
// across tables and a non-zero seed reproduces the same rows. A nil snapshot
// is introspected once. It returns the seed used.
func SeedAll(ctx context.Context, s *seeder.Seeder, snapshot *schema.Schema, rs *rules.Ruleset, seed int64) (int64, error) {
	b, err := s.NewBatch(ctx, snapshot, seed)
	if err != nil {
		return 0, err
	}
{{range .Tables}}
	if _, err := {{.Func}}(ctx, b, rs); err != nil {
		return b.Seed(), err
	}
{{- end}}
	return b.Seed(), nil
}
`))
