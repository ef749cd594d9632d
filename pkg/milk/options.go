// Registry of configuration options exposed to shells.
//
// This list mirrors the fields of Config. Keep it in sync when a field is
// added so the CLI, help text and Set/Get agree.

package milk

import (
	"fmt"
	"strconv"
	"strings"
)

// OptionSpec describes one configurable field. Min and Max are the
// documented range for "int" options; they are hints for UIs, the core
// clamps at point of use.
type OptionSpec struct {
	Name        string
	Type        string // "bool", "int" or "slot"
	Min         int
	Max         int
	Default     string
	Description string
}

// Options is the authoritative list of configuration options.
var Options = []OptionSpec{
	{Name: "enabled", Type: "bool", Default: "true", Description: "Enable the color-bucket filter."},
	{Name: "alt", Type: "bool", Default: "false", Description: "Use the alternative palette and thresholds."},
	{Name: "pointism", Type: "bool", Default: "false", Description: "Pointillism: randomized dithering between buckets."},
	{Name: "comp", Type: "int", Min: 0, Max: MaxComp, Default: "0", Description: "Compression artifact strength in percent (0 = off)."},
	{Name: "quant", Type: "bool", Default: "true", Description: "Run the quantization pass."},
	{Name: "block", Type: "bool", Default: "true", Description: "Run the blockiness pass."},
	{Name: "block_size", Type: "int", Min: 0, Max: MaxBlockSize, Default: "0", Description: "Block width in pixels (0 = auto from comp)."},
	{Name: "eff", Type: "int", Min: 0, Max: 1, Default: "0", Description: "Effect variant: which side bucket ties resolve to."},
	{Name: "s1", Type: "slot", Default: "none", Description: "Palette slot for the darkest bucket (0..2 or none)."},
	{Name: "s2", Type: "slot", Default: "none", Description: "Palette slot for bucket 2 (0..2 or none)."},
	{Name: "s3", Type: "slot", Default: "none", Description: "Palette slot for bucket 3 (0..2 or none)."},
	{Name: "s4", Type: "slot", Default: "none", Description: "Palette slot for bucket 4 (0..2 or none)."},
	{Name: "s5", Type: "slot", Default: "none", Description: "Palette slot for bucket 5 (0..2 or none)."},
	{Name: "s6", Type: "slot", Default: "none", Description: "Palette slot for the brightest bucket (0..2 or none)."},
}

// LookupOption finds an option by name, case-insensitively.
func LookupOption(name string) (OptionSpec, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, o := range Options {
		if o.Name == name {
			return o, true
		}
	}
	return OptionSpec{}, false
}

// slotIndex returns the override index for "s1".."s6".
func slotIndex(name string) (int, bool) {
	if len(name) != 2 || name[0] != 's' || name[1] < '1' || name[1] > '6' {
		return 0, false
	}
	return int(name[1] - '1'), true
}

// Set parses value and assigns it to the named field. Only the syntax is
// checked; numeric ranges are left to the passes.
func (c *Config) Set(name, value string) error {
	spec, ok := LookupOption(name)
	if !ok {
		return fmt.Errorf("unknown option: %s", name)
	}
	value = strings.TrimSpace(value)
	switch spec.Type {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("option %s: invalid boolean %q", spec.Name, value)
		}
		switch spec.Name {
		case "enabled":
			c.Enabled = b
		case "alt":
			c.Alt = b
		case "pointism":
			c.Pointism = b
		case "quant":
			c.Quant = b
		case "block":
			c.Block = b
		}
	case "int":
		bits := 8
		if spec.Name == "block_size" {
			bits = 32
		}
		v, err := strconv.ParseUint(value, 10, bits)
		if err != nil {
			return fmt.Errorf("option %s: invalid integer %q: %w", spec.Name, value, err)
		}
		switch spec.Name {
		case "comp":
			c.Comp = uint8(v)
		case "block_size":
			c.BlockSize = uint32(v)
		case "eff":
			c.Eff = uint8(v)
		}
	case "slot":
		i, _ := slotIndex(spec.Name)
		if value == "" || strings.EqualFold(value, "none") {
			c.Overrides[i] = Override{}
			return nil
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("option %s: invalid palette slot %q", spec.Name, value)
		}
		c.Overrides[i] = Pin(v)
	}
	return nil
}

// Get formats the current value of the named field.
func (c *Config) Get(name string) (string, error) {
	spec, ok := LookupOption(name)
	if !ok {
		return "", fmt.Errorf("unknown option: %s", name)
	}
	switch spec.Name {
	case "enabled":
		return strconv.FormatBool(c.Enabled), nil
	case "alt":
		return strconv.FormatBool(c.Alt), nil
	case "pointism":
		return strconv.FormatBool(c.Pointism), nil
	case "quant":
		return strconv.FormatBool(c.Quant), nil
	case "block":
		return strconv.FormatBool(c.Block), nil
	case "comp":
		return strconv.Itoa(int(c.Comp)), nil
	case "block_size":
		return strconv.FormatUint(uint64(c.BlockSize), 10), nil
	case "eff":
		return strconv.Itoa(int(c.Eff)), nil
	}
	i, _ := slotIndex(spec.Name)
	return c.Overrides[i].String(), nil
}
