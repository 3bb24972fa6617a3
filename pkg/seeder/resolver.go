package seeder

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
)

// Resolver decides the value of one column. The chain is: explicit rule,
// declared foreign key, inferred foreign key, name and type heuristics.
type Resolver struct {
	conn    Conn
	factory Factory
	schema  *schema.Schema
	run     *Run
}

func NewResolver(conn Conn, factory Factory, snapshot *schema.Schema, run *Run) *Resolver {
	return &Resolver{conn: conn, factory: factory, schema: snapshot, run: run}
}

func (r *Resolver) Resolve(ctx context.Context, table *schema.Table, col *schema.Column, rule *rules.ColumnRule) (interface{}, error) {
	if rule != nil {
		value, handled, err := r.fromRule(ctx, table, col, rule)
		if err != nil || handled {
			return value, err
		}
	}

	if col.ForeignKey != nil {
		return r.foreignValue(ctx, table, col, *col.ForeignKey, true)
	}

	if ref := InferReference(col.Name, r.schema); ref != nil {
		return r.foreignValue(ctx, table, col, *ref, false)
	}

	return r.Heuristic(table, col)
}

// fromRule applies an explicit rule. handled is false when the rule could not
// produce a value and resolution should continue down the chain.
func (r *Resolver) fromRule(ctx context.Context, table *schema.Table, col *schema.Column, rule *rules.ColumnRule) (interface{}, bool, error) {
	switch rule.Strategy {
	case rules.StrategyLiteral:
		return rule.Value, true, nil

	case rules.StrategyHash:
		h, err := r.run.Hash(rule.HashValue())
		if err != nil {
			return nil, true, errs.Generation(table.Name, col.Name, err, "cannot hash value")
		}
		return h, true, nil

	case rules.StrategyFK:
		ref := r.ruleReference(col, rule)
		if ref == nil {
			return nil, false, nil
		}
		value, ok, err := r.conn.RandomValue(ctx, ref.Table, ref.Column)
		if err != nil {
			return nil, true, errs.Generation(table.Name, col.Name, err, "cannot read %s", ref)
		}
		if ok {
			return value, true, nil
		}
		if rule.Create {
			value, err := r.createForeign(ctx, table, col, *ref)
			return value, true, err
		}
		return nil, false, nil

	case rules.StrategyFaker:
		gen, name, ok := LookupGenerator(rule.Method)
		if !ok {
			return nil, true, errs.Generation(table.Name, col.Name, nil, "unknown faker method %q", rule.Method)
		}
		var value interface{}
		var err error
		if rule.Unique {
			value, err = r.run.Unique(name, func() (interface{}, error) { return gen(r.run, rule.Args) })
		} else {
			value, err = gen(r.run, rule.Args)
		}
		if err != nil {
			return nil, true, errs.Generation(table.Name, col.Name, err, "faker method %q failed", rule.Method)
		}
		return value, true, nil
	}
	return nil, false, nil
}

// ruleReference picks the fk rule target: the rule's own table when it
// exists in the schema, else the declared key, else the naming convention.
func (r *Resolver) ruleReference(col *schema.Column, rule *rules.ColumnRule) *schema.ForeignKey {
	if rule.Table != "" && r.schema != nil && r.schema.Table(rule.Table) != nil {
		column := rule.Column
		if column == "" {
			column = "id"
		}
		return &schema.ForeignKey{Table: rule.Table, Column: column}
	}
	if col.ForeignKey != nil {
		fk := *col.ForeignKey
		return &fk
	}
	return InferReference(col.Name, r.schema)
}

func (r *Resolver) foreignValue(ctx context.Context, table *schema.Table, col *schema.Column, ref schema.ForeignKey, allowCreate bool) (interface{}, error) {
	value, ok, err := r.conn.RandomValue(ctx, ref.Table, ref.Column)
	if err != nil {
		return nil, errs.Generation(table.Name, col.Name, err, "cannot read %s", ref)
	}
	if ok {
		return value, nil
	}
	if !allowCreate {
		return nil, nil
	}
	return r.createForeign(ctx, table, col, ref)
}

func (r *Resolver) createForeign(ctx context.Context, table *schema.Table, col *schema.Column, ref schema.ForeignKey) (interface{}, error) {
	if r.factory == nil || !r.factory.HasFactory(ref.Table) {
		return nil, nil
	}
	record, err := r.factory.Create(ctx, ref.Table)
	if err != nil {
		return nil, errs.Generation(table.Name, col.Name, err, "factory for %s failed", ref.Table)
	}
	return record[ref.Column], nil
}

// Heuristic guesses a value from the column name first, then its type.
// A nil value means nothing sensible was found.
func (r *Resolver) Heuristic(table *schema.Table, col *schema.Column) (interface{}, error) {
	name := strings.ToLower(col.Name)
	run := r.run

	switch {
	case strings.HasSuffix(name, "_at") || strings.Contains(name, "_timestamp") || col.Type == schema.TypeDateTime:
		now := run.now()
		return run.TimeBetween(now.AddDate(-1, 0, 0), now), nil

	case strings.Contains(name, "password"):
		h, err := run.Hash("password")
		if err != nil {
			return nil, errs.Generation(table.Name, col.Name, err, "cannot hash value")
		}
		return h, nil

	case strings.Contains(name, "token") || strings.Contains(name, "api_key") || strings.Contains(name, "secret"):
		return run.Token(40), nil

	case strings.Contains(name, "email"):
		return r.unique(table, col, "safeemail", func() (interface{}, error) { return run.fake.SafeEmail(), nil })

	case name == "username" || strings.Contains(name, "user_name"):
		return r.unique(table, col, "username", func() (interface{}, error) { return run.fake.UserName(), nil })

	case name == "first_name":
		return run.fake.FirstName(), nil
	case name == "last_name":
		return run.fake.LastName(), nil
	case name == "name":
		return run.fake.Name(), nil
	case strings.Contains(name, "phone"):
		return run.fake.PhoneNumber(), nil
	case strings.Contains(name, "address"):
		return run.fake.StreetAddress(), nil
	case name == "city":
		return run.fake.City(), nil
	case name == "state" || name == "province" || name == "region":
		return run.fake.State(), nil
	case name == "zip" || name == "zipcode" || name == "postal_code":
		return run.fake.PostCode(), nil
	case name == "country":
		return run.fake.Country(), nil
	case strings.Contains(name, "url") || strings.Contains(name, "website"):
		return run.fake.URL(), nil
	case strings.Contains(name, "uuid"):
		return run.UUID(), nil
	case strings.Contains(name, "slug"):
		return slugify(run.fake.Sentence(3, false)), nil
	}

	switch {
	case col.Type == schema.TypeString:
		return run.Words(3), nil
	case col.Type == schema.TypeText:
		return run.fake.Paragraph(3, false), nil
	case col.Type.IsInteger():
		return run.IntBetween(1, 10000), nil
	case col.Type.IsDecimal():
		return run.FloatBetween(2, 1, 10000), nil
	case col.Type == schema.TypeBoolean:
		return run.rand.Intn(2) == 1, nil
	case col.Type == schema.TypeDate:
		return run.TimeBetween(time.Unix(0, 0).UTC(), run.now()).Format("2006-01-02"), nil
	case col.Type == schema.TypeTime:
		return run.TimeBetween(time.Unix(0, 0).UTC(), run.now()).Format("15:04:05"), nil
	case col.Type == schema.TypeJSON:
		b, err := json.Marshal(map[string]string{"value": run.Words(1)})
		if err != nil {
			return nil, errs.Generation(table.Name, col.Name, err, "cannot encode json")
		}
		return string(b), nil
	case col.Type == schema.TypeBinary:
		return run.Text(50), nil
	case col.Type == schema.TypeUUID:
		return run.UUID(), nil
	}
	return nil, nil
}

// Fallback supplies a type safe value for a non-nullable column that
// resolved to nil.
func (r *Resolver) Fallback(table *schema.Table, col *schema.Column) (interface{}, error) {
	switch {
	case col.Type == schema.TypeBoolean:
		return false, nil
	case col.Type.IsInteger():
		return 1, nil
	case col.Type.IsDecimal():
		return 0, nil
	}

	value, err := r.Heuristic(table, col)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return "n/a", nil
	}
	return value, nil
}

func (r *Resolver) unique(table *schema.Table, col *schema.Column, key string, gen func() (interface{}, error)) (interface{}, error) {
	value, err := r.run.Unique(key, gen)
	if err != nil {
		return nil, errs.Generation(table.Name, col.Name, err, "unique values exhausted")
	}
	return value, nil
}
