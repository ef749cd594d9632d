package cli

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/Fepozopo/milk/pkg/milk"
)

// ParamType is a small enum for option value types used in metadata.
type ParamType string

const (
	ParamTypeInt  ParamType = "int"
	ParamTypeBool ParamType = "bool"
	ParamTypeSlot ParamType = "slot"
)

// paletteSlots is the number of colors in each palette; slot overrides must
// name one of them.
const paletteSlots = 3

// ValidationRule is a machine-friendly representation of the constraints
// the shell applies before handing a value to milk.Config.Set.
type ValidationRule struct {
	Type        ParamType
	Min         *int
	Max         *int
	EnumOptions []string // accepted spellings for bool and slot values
	Example     string
}

// Accepted lists the values the rule takes, for prompts and help output.
func (r ValidationRule) Accepted() string {
	var s string
	switch {
	case len(r.EnumOptions) > 0:
		s = strings.Join(r.EnumOptions, ", ")
	case r.Min != nil && r.Max != nil:
		s = fmt.Sprintf("%d..%d", *r.Min, *r.Max)
	default:
		s = "any " + string(r.Type)
	}
	if r.Example != "" {
		s += " (e.g. " + r.Example + ")"
	}
	return s
}

// Spellings accepted for bool and slot values, shared by NormalizeOptionValue
// and the validation rules.
var (
	trueSpellings  = []string{"true", "t", "1", "yes", "y", "on"}
	falseSpellings = []string{"false", "f", "0", "no", "n", "off"}
	noneSpellings  = []string{"none", "-", "auto"}
)

// parseBoolLikeToString accepts common truthy/falsy forms and returns "true"/"false" string.
func parseBoolLikeToString(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case slices.Contains(trueSpellings, v):
		return "true", nil
	case slices.Contains(falseSpellings, v):
		return "false", nil
	default:
		return "", fmt.Errorf("invalid boolean: %q", s)
	}
}

func slotSpellings() []string {
	out := slices.Clone(noneSpellings)
	for i := 0; i < paletteSlots; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func intPtr(v int) *int { return &v }

// GenerateTooltip produces a one-paragraph help text for an option.
func GenerateTooltip(o milk.OptionSpec) string {
	var sb strings.Builder
	sb.WriteString(o.Name)
	sb.WriteString(" (")
	sb.WriteString(o.Type)
	switch o.Type {
	case "int":
		fmt.Fprintf(&sb, ", %d..%d", o.Min, o.Max)
	case "slot":
		fmt.Fprintf(&sb, ", 0..%d or none", paletteSlots-1)
	}
	sb.WriteString(")")
	if o.Description != "" {
		sb.WriteString(": " + o.Description)
	}
	if o.Default != "" {
		sb.WriteString(" (default: " + o.Default + ")")
	}
	return sb.String()
}

// GenerateValidationRule derives the shell-side rule for an option.
func GenerateValidationRule(o milk.OptionSpec) ValidationRule {
	r := ValidationRule{Example: o.Default}
	switch o.Type {
	case "bool":
		r.Type = ParamTypeBool
		r.EnumOptions = slices.Concat(trueSpellings, falseSpellings)
	case "slot":
		r.Type = ParamTypeSlot
		r.Min = intPtr(0)
		r.Max = intPtr(paletteSlots - 1)
		r.EnumOptions = slotSpellings()
	default:
		r.Type = ParamTypeInt
		r.Min = intPtr(o.Min)
		r.Max = intPtr(o.Max)
	}
	return r
}

// OptionStore indexes milk.OptionSpec entries by name.
type OptionStore struct {
	Options []milk.OptionSpec
	byName  map[string]milk.OptionSpec
}

// NewOptionStore creates an OptionStore from an option list.
func NewOptionStore(opts []milk.OptionSpec) *OptionStore {
	s := &OptionStore{Options: opts, byName: make(map[string]milk.OptionSpec, len(opts))}
	for _, o := range opts {
		s.byName[o.Name] = o
	}
	return s
}

// Lookup finds an option by exact name, then by case-insensitive unique prefix.
// Ambiguous prefixes return the candidate names.
func (s *OptionStore) Lookup(name string) (milk.OptionSpec, []string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if o, ok := s.byName[name]; ok {
		return o, nil, true
	}
	if name == "" {
		return milk.OptionSpec{}, nil, false
	}
	var matches []string
	for _, o := range s.Options {
		if strings.HasPrefix(o.Name, name) {
			matches = append(matches, o.Name)
		}
	}
	if len(matches) == 1 {
		return s.byName[matches[0]], nil, true
	}
	sort.Strings(matches)
	return milk.OptionSpec{}, matches, false
}

// GetOptionHelp returns both tooltip and validation rule for an option.
func (s *OptionStore) GetOptionHelp(name string) (string, ValidationRule, error) {
	o, ok := s.byName[name]
	if !ok {
		return "", ValidationRule{}, fmt.Errorf("unknown option: %s", name)
	}
	return GenerateTooltip(o), GenerateValidationRule(o), nil
}

// NormalizeOptionValue validates raw against the option's rule and returns
// the canonical string accepted by milk.Config.Set. Unlike the core, the
// shell rejects values outside the documented range.
func NormalizeOptionValue(store *OptionStore, name, raw string) (string, error) {
	if store == nil {
		return "", fmt.Errorf("option store is nil")
	}
	o, ok := store.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown option: %s", name)
	}
	raw = strings.TrimSpace(raw)
	vr := GenerateValidationRule(o)
	switch vr.Type {
	case ParamTypeBool:
		bs, err := parseBoolLikeToString(raw)
		if err != nil {
			return "", fmt.Errorf("option %s: %w", name, err)
		}
		return bs, nil
	case ParamTypeSlot:
		if v := strings.ToLower(raw); v == "" || slices.Contains(noneSpellings, v) {
			return "none", nil
		}
		fallthrough
	case ParamTypeInt:
		if raw == "" {
			return "", fmt.Errorf("option %s: missing value", name)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return "", fmt.Errorf("option %s: expected integer, got %q", name, raw)
		}
		if vr.Min != nil && v < *vr.Min {
			return "", fmt.Errorf("option %s: %d < min %d", name, v, *vr.Min)
		}
		if vr.Max != nil && v > *vr.Max {
			return "", fmt.Errorf("option %s: %d > max %d", name, v, *vr.Max)
		}
		return strconv.Itoa(v), nil
	}
	return "", fmt.Errorf("option %s: unsupported type %q", name, vr.Type)
}

// ApplyOption validates and assigns one option on cfg.
func ApplyOption(store *OptionStore, cfg *milk.Config, name, raw string) error {
	o, candidates, ok := store.Lookup(name)
	if !ok {
		if len(candidates) > 0 {
			return fmt.Errorf("ambiguous option %q: %s", name, strings.Join(candidates, ", "))
		}
		return fmt.Errorf("unknown option: %s", name)
	}
	v, err := NormalizeOptionValue(store, o.Name, raw)
	if err != nil {
		return err
	}
	return cfg.Set(o.Name, v)
}

// FormatConfig renders every option as "name = value", one per line.
func FormatConfig(store *OptionStore, cfg *milk.Config) string {
	var sb strings.Builder
	for _, o := range store.Options {
		v, err := cfg.Get(o.Name)
		if err != nil {
			v = "?"
		}
		fmt.Fprintf(&sb, "  %-10s = %s\n", o.Name, v)
	}
	return strings.TrimRight(sb.String(), "\n")
}
