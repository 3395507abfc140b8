package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

type modifierFile struct {
	Modifiers []modifierEntry `yaml:"modifiers"`
}

type modifierEntry struct {
	ID          string  `yaml:"id"`
	Effect      string  `yaml:"effect"`
	Multiplier  float64 `yaml:"multiplier"`
	When        string  `yaml:"when"`
	Description string  `yaml:"description"`
}

// Rule variables: voted, weekend (bool), patron_tier (string), invites (int).
func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("voted", cel.BoolType),
		cel.Variable("weekend", cel.BoolType),
		cel.Variable("patron_tier", cel.StringType),
		cel.Variable("invites", cel.IntType),
	)
}

// CompileRule turns a CEL expression into a Predicate. An empty rule or the
// literal "true" yields a nil Predicate, meaning the modifier always applies.
func CompileRule(env *cel.Env, expr string) (Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "true" {
		return nil, nil
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}

	return func(eligibility Eligibility) bool {
		out, _, err := prg.Eval(map[string]any{
			"voted":       eligibility.Voted,
			"weekend":     eligibility.Weekend,
			"patron_tier": eligibility.PatronTier,
			"invites":     int64(eligibility.Invites),
		})
		if err != nil {
			return false
		}

		matched, ok := out.Value().(bool)
		return ok && matched
	}, nil
}

// LoadModifierSet parses a YAML modifier policy. Modifiers keep file order as priority order.
func LoadModifierSet(b []byte) (*ModifierSet, error) {
	var file modifierFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModifierConfiguration, err)
	}

	env, err := newRuleEnv()
	if err != nil {
		return nil, err
	}

	modifiers := make([]BonusModifier, 0, len(file.Modifiers))
	for _, entry := range file.Modifiers {
		when, err := CompileRule(env, entry.When)
		if err != nil {
			return nil, fmt.Errorf("%w: modifier %q: %v", ErrInvalidModifierConfiguration, entry.ID, err)
		}

		modifiers = append(modifiers, BonusModifier{
			ID:          entry.ID,
			Effect:      ModifierEffect(strings.ToLower(strings.TrimSpace(entry.Effect))),
			Multiplier:  entry.Multiplier,
			Description: entry.Description,
			When:        when,
		})
	}

	return NewModifierSet(modifiers...)
}

func LoadModifierSetFile(path string) (*ModifierSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return LoadModifierSet(b)
}
