package seeder

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manveru/faker"
	"github.com/spf13/cast"
	"golang.org/x/crypto/bcrypt"
)

// maxUniqueAttempts bounds the retries of a unique draw before the
// generator is considered exhausted.
const maxUniqueAttempts = 10000

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Run is the generation state of one seeding run. Uniqueness tracking lives
// here, so a fresh Run never rejects values produced by an earlier one.
type Run struct {
	seed   int64
	rand   *rand.Rand
	fake   *faker.Faker
	now    func() time.Time
	unique map[string]map[string]struct{}
	hashes map[string]string
}

// NewRun creates a run whose random choices are fully determined by seed.
func NewRun(seed int64) (*Run, error) {
	fake, err := faker.New("en")
	if err != nil {
		return nil, fmt.Errorf("failed to create data generator: %w", err)
	}

	rnd := rand.New(rand.NewSource(seed))
	fake.Rand = rnd

	return &Run{
		seed:   seed,
		rand:   rnd,
		fake:   fake,
		now:    time.Now,
		unique: make(map[string]map[string]struct{}),
		hashes: make(map[string]string),
	}, nil
}

func (r *Run) Seed() int64 { return r.seed }

// Unique calls gen until it returns a value not yet produced under key in
// this run.
func (r *Run) Unique(key string, gen func() (interface{}, error)) (interface{}, error) {
	used, ok := r.unique[key]
	if !ok {
		used = make(map[string]struct{})
		r.unique[key] = used
	}

	for attempt := 0; attempt < maxUniqueAttempts; attempt++ {
		v, err := gen()
		if err != nil {
			return nil, err
		}
		k := fmt.Sprint(v)
		if _, dup := used[k]; dup {
			continue
		}
		used[k] = struct{}{}
		return v, nil
	}
	return nil, fmt.Errorf("no unique %s value after %d attempts", key, maxUniqueAttempts)
}

// Hash returns a bcrypt digest of plain. Digests are reused within a run.
func (r *Run) Hash(plain string) (string, error) {
	if h, ok := r.hashes[plain]; ok {
		return h, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	r.hashes[plain] = string(h)
	return string(h), nil
}

func (r *Run) Token(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[r.rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}

func (r *Run) IntBetween(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + r.rand.Intn(max-min+1)
}

func (r *Run) FloatBetween(decimals int, min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	v := min + r.rand.Float64()*(max-min)
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// TimeBetween returns a uniformly distributed instant in [from, to].
func (r *Run) TimeBetween(from, to time.Time) time.Time {
	if to.Before(from) {
		from, to = to, from
	}
	span := to.Sub(from)
	if span <= 0 {
		return from
	}
	return from.Add(time.Duration(r.rand.Int63n(int64(span))))
}

func (r *Run) UUID() string {
	id, err := uuid.NewRandomFromReader(r.rand)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (r *Run) Words(n int) string {
	return strings.Join(r.fake.Words(n, false), " ")
}

func (r *Run) Text(maxChars int) string {
	text := r.fake.Paragraph(3, false)
	if len(text) <= maxChars {
		return text
	}
	return strings.TrimSpace(text[:maxChars])
}

// Generator produces one value; args come straight from a faker rule.
type Generator func(r *Run, args []interface{}) (interface{}, error)

var generators = map[string]Generator{
	"name":      func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.Name(), nil },
	"firstname": func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.FirstName(), nil },
	"lastname":  func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.LastName(), nil },
	"email":     func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.Email(), nil },
	"safeemail": func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.SafeEmail(), nil },
	"freeemail": func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.FreeEmail(), nil },
	"username":  func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.UserName(), nil },
	"phonenumber": func(r *Run, _ []interface{}) (interface{}, error) {
		return r.fake.PhoneNumber(), nil
	},
	"cellphonenumber": func(r *Run, _ []interface{}) (interface{}, error) {
		return r.fake.CellPhoneNumber(), nil
	},
	"streetaddress": func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.StreetAddress(), nil },
	"city":          func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.City(), nil },
	"state":         func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.State(), nil },
	"postcode":      func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.PostCode(), nil },
	"country":       func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.Country(), nil },
	"url":           func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.URL(), nil },
	"domainname":    func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.DomainName(), nil },
	"company":       func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.CompanyName(), nil },
	"jobtitle":      func(r *Run, _ []interface{}) (interface{}, error) { return r.fake.JobTitle(), nil },
	"uuid":          func(r *Run, _ []interface{}) (interface{}, error) { return r.UUID(), nil },

	"word": func(r *Run, _ []interface{}) (interface{}, error) { return r.Words(1), nil },
	"words": func(r *Run, args []interface{}) (interface{}, error) {
		return r.Words(intArg(args, 0, 3)), nil
	},
	"sentence": func(r *Run, args []interface{}) (interface{}, error) {
		return r.fake.Sentence(intArg(args, 0, 6), false), nil
	},
	"paragraph": func(r *Run, args []interface{}) (interface{}, error) {
		return r.fake.Paragraph(intArg(args, 0, 3), false), nil
	},
	"text": func(r *Run, args []interface{}) (interface{}, error) {
		return r.Text(intArg(args, 0, 200)), nil
	},
	"slug": func(r *Run, args []interface{}) (interface{}, error) {
		return slugify(r.fake.Sentence(intArg(args, 0, 3), false)), nil
	},
	"token": func(r *Run, args []interface{}) (interface{}, error) {
		return r.Token(intArg(args, 0, 40)), nil
	},
	"password": func(r *Run, args []interface{}) (interface{}, error) {
		return r.Hash(stringArg(args, 0, "password"))
	},

	"numberbetween": func(r *Run, args []interface{}) (interface{}, error) {
		return r.IntBetween(intArg(args, 0, 0), intArg(args, 1, math.MaxInt32)), nil
	},
	"randomdigit": func(r *Run, _ []interface{}) (interface{}, error) { return r.rand.Intn(10), nil },
	"randomfloat": func(r *Run, args []interface{}) (interface{}, error) {
		return r.FloatBetween(intArg(args, 0, 2), cast.ToFloat64(argAt(args, 1, 0)), cast.ToFloat64(argAt(args, 2, 10000))), nil
	},
	"boolean": func(r *Run, args []interface{}) (interface{}, error) {
		return r.rand.Intn(100) < intArg(args, 0, 50), nil
	},
	"randomelement": func(r *Run, args []interface{}) (interface{}, error) {
		choices := args
		if len(args) == 1 {
			if list, ok := args[0].([]interface{}); ok {
				choices = list
			}
		}
		if len(choices) == 0 {
			return nil, fmt.Errorf("randomElement needs at least one choice")
		}
		return choices[r.rand.Intn(len(choices))], nil
	},

	"date": func(r *Run, args []interface{}) (interface{}, error) {
		to, err := timeArg(r, args, 1, "now")
		if err != nil {
			return nil, err
		}
		return r.TimeBetween(time.Unix(0, 0).UTC(), to).Format(stringArg(args, 0, "2006-01-02")), nil
	},
	"time": func(r *Run, args []interface{}) (interface{}, error) {
		return r.TimeBetween(time.Unix(0, 0).UTC(), r.now()).Format(stringArg(args, 0, "15:04:05")), nil
	},
	"datetime": func(r *Run, args []interface{}) (interface{}, error) {
		to, err := timeArg(r, args, 0, "now")
		if err != nil {
			return nil, err
		}
		return r.TimeBetween(time.Unix(0, 0).UTC(), to), nil
	},
	"datetimebetween": func(r *Run, args []interface{}) (interface{}, error) {
		from, err := timeArg(r, args, 0, "-30 years")
		if err != nil {
			return nil, err
		}
		to, err := timeArg(r, args, 1, "now")
		if err != nil {
			return nil, err
		}
		return r.TimeBetween(from, to), nil
	},
	"json": func(r *Run, _ []interface{}) (interface{}, error) {
		b, err := json.Marshal(map[string]string{"value": r.Words(1)})
		return string(b), err
	},
}

var generatorAliases = map[string]string{
	"timestamp":        "datetime",
	"datetimethisyear": "datetime",
	"zip":              "postcode",
	"zipcode":          "postcode",
	"postalcode":       "postcode",
	"phone":            "phonenumber",
	"address":          "streetaddress",
	"companyname":      "company",
	"uuid4":            "uuid",
	"randomnumber":     "numberbetween",
	"integer":          "numberbetween",
	"bool":             "boolean",
}

var normalizeRe = regexp.MustCompile(`[\s_\-]+`)

// LookupGenerator resolves a rule method name. Matching ignores case,
// underscores and dashes, then falls back to the alias table.
func LookupGenerator(method string) (Generator, string, bool) {
	key := normalizeRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(method)), "")
	if key == "" {
		return nil, "", false
	}
	if gen, ok := generators[key]; ok {
		return gen, key, true
	}
	if target, ok := generatorAliases[key]; ok {
		return generators[target], target, true
	}
	return nil, "", false
}

// GeneratorNames lists the canonical generator names.
func GeneratorNames() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func argAt(args []interface{}, i int, def interface{}) interface{} {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return def
}

func intArg(args []interface{}, i, def int) int {
	n, err := cast.ToIntE(argAt(args, i, def))
	if err != nil {
		return def
	}
	return n
}

func stringArg(args []interface{}, i int, def string) string {
	s := cast.ToString(argAt(args, i, def))
	if s == "" {
		return def
	}
	return s
}

func timeArg(r *Run, args []interface{}, i int, def string) (time.Time, error) {
	return parseRelativeTime(stringArg(args, i, def), r.now())
}

var relativeRe = regexp.MustCompile(`^([+-]?\d+)\s*(second|minute|hour|day|week|month|year)s?$`)

// parseRelativeTime understands "now", offsets such as "-1 year" or
// "+3 days", and absolute dates.
func parseRelativeTime(expr string, now time.Time) (time.Time, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" || expr == "now" {
		return now, nil
	}

	if m := relativeRe.FindStringSubmatch(expr); m != nil {
		n := cast.ToInt(strings.TrimPrefix(m[1], "+"))
		switch m[2] {
		case "second":
			return now.Add(time.Duration(n) * time.Second), nil
		case "minute":
			return now.Add(time.Duration(n) * time.Minute), nil
		case "hour":
			return now.Add(time.Duration(n) * time.Hour), nil
		case "day":
			return now.AddDate(0, 0, n), nil
		case "week":
			return now.AddDate(0, 0, 7*n), nil
		case "month":
			return now.AddDate(0, n, 0), nil
		default:
			return now.AddDate(n, 0, 0), nil
		}
	}

	t, err := cast.ToTimeE(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot understand time %q", expr)
	}
	return t, nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
