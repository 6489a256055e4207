package guard

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Verdict int

const (
	Protected Verdict = iota
	Public
)

func (v Verdict) String() string {
	if v == Public {
		return "public"
	}
	return "protected"
}

// Matcher reports whether a normalized path falls under a rule.
type Matcher func(path string) bool

type Rule struct {
	Name    string
	Match   Matcher
	Verdict Verdict
}

// Rules are evaluated top to bottom and the first match decides.
type Rules []Rule

var DefaultPublic = []string{
	"/",
	"/login",
	"/login/otp",
	"/register",
	"/logout",
	"/about",
	"/contact",
	"/events",
	"/occasions",
	"/blogs",
	"/gallery",
	"/privacy-policy",
	"/terms",
	"/admin",
	"/static",
	"/healthz",
	"/metrics",
}

var DefaultPublicPrefixes = []string{"/admin/", "/blogs/", "/events/"}

func DefaultRules() Rules {
	return BuildRules(DefaultPublic, DefaultPublicPrefixes)
}

// BuildRules lays out the classification: exact allow-list, hardcoded public
// prefixes, then any allow-listed entry used as a prefix of the path, then
// protected. The rules overlap and some allow-list entries are redundant;
// that is the observed behavior and tightening it would close routes that
// are public today. "/" only ever matches exactly.
func BuildRules(public, prefixes []string) Rules {
	exact := make(map[string]struct{}, len(public))
	var selfPrefixes []string
	for _, p := range public {
		p = Normalize(p)
		exact[p] = struct{}{}
		if p != "/" {
			selfPrefixes = append(selfPrefixes, p)
		}
	}
	hard := append([]string(nil), prefixes...)

	return Rules{
		{
			Name:    "allow-list",
			Verdict: Public,
			Match: func(path string) bool {
				_, ok := exact[path]
				return ok
			},
		},
		{
			Name:    "public-prefix",
			Verdict: Public,
			Match:   hasAnyPrefix(hard),
		},
		{
			Name:    "allow-list-prefix",
			Verdict: Public,
			Match:   hasAnyPrefix(selfPrefixes),
		},
		{
			Name:    "default",
			Verdict: Protected,
			Match:   func(string) bool { return true },
		},
	}
}

func hasAnyPrefix(prefixes []string) Matcher {
	return func(path string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}

// Normalize strips a single trailing slash. The root path is left alone.
func Normalize(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}
	return path
}

// Classify returns the first rule matching path.
func (rs Rules) Classify(path string) Rule {
	path = Normalize(path)
	for _, r := range rs {
		if r.Match(path) {
			return r
		}
	}
	return Rule{Name: "default", Verdict: Protected}
}

// Explain names the rule that decides path, e.g. "public-prefix".
func (rs Rules) Explain(path string) string {
	r := rs.Classify(path)
	return fmt.Sprintf("%s (%s)", r.Verdict, r.Name)
}

type rulesFile struct {
	Public         []string `yaml:"public"`
	PublicPrefixes []string `yaml:"public_prefixes"`
}

// LoadRules reads a YAML file with "public" and "public_prefixes" lists.
// A list left out of the file keeps its default.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route rules: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse route rules: %w", err)
	}

	public := f.Public
	if public == nil {
		public = DefaultPublic
	}
	prefixes := f.PublicPrefixes
	if prefixes == nil {
		prefixes = DefaultPublicPrefixes
	}
	return BuildRules(public, prefixes), nil
}
