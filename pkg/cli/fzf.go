package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Fepozopo/milk/pkg/milk"
)

// formatOptionLines renders one fzf line per option: "name: description [current]".
func formatOptionLines(opts []milk.OptionSpec, cfg *milk.Config) string {
	var b strings.Builder
	for _, o := range opts {
		cur := ""
		if cfg != nil {
			if v, err := cfg.Get(o.Name); err == nil {
				cur = " [" + v + "]"
			}
		}
		fmt.Fprintf(&b, "%s: %s%s\n", o.Name, o.Description, cur)
	}
	return b.String()
}

// parseOptionSelection extracts the option name from an fzf line.
func parseOptionSelection(selection string) (string, error) {
	selection = strings.TrimSpace(selection)
	name, _, _ := strings.Cut(selection, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("no option selected")
	}
	return name, nil
}

// SelectOptionWithFzf displays the option list in fzf and returns the selected option name.
func SelectOptionWithFzf(opts []milk.OptionSpec, cfg *milk.Config) (string, error) {
	cmd := exec.Command("fzf", "--prompt=Option> ")
	cmd.Stdin = strings.NewReader(formatOptionLines(opts, cfg))

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running fzf: %w", err)
	}
	return parseOptionSelection(out.String())
}

// filePreviewCommand picks an fzf --preview command for the detected terminal.
// Each chain falls back to chafa when the preferred renderer is missing.
func filePreviewCommand() string {
	const chafa = "chafa --fill=block --symbols=block -s 80x40 {} 2>/dev/null"
	switch {
	case isKitty():
		return "printf \"\\x1b_Ga=d\\x1b\\\\\"; kitty +kitten icat --silent {} 2>/dev/null || " + chafa
	case isInlineImageCapable():
		return "imgcat {} 2>/dev/null || " + chafa
	}
	return chafa
}

// SelectFileWithFzf launches fzf over the PNG/JPEG files found under startDir
// and returns the selected path. It needs both `find` and `fzf` on PATH.
func SelectFileWithFzf(startDir string) (string, error) {
	cmdStr := fmt.Sprintf(
		"find %s -type f \\( -iname '*.jpg' -o -iname '*.jpeg' -o -iname '*.png' \\) | fzf --height 100%% --border --prompt='Files> ' --ansi --preview=%q --preview-window='right:60%%'",
		strconv.Quote(startDir),
		filePreviewCommand(),
	)
	cmd := exec.Command("bash", "-lc", cmdStr)

	var out bytes.Buffer
	cmd.Stdout = &out

	err := cmd.Run()
	// the kitty previewer leaves images behind either way
	clearKittyImages()
	if err != nil {
		return "", fmt.Errorf("error running fzf for files: %w", err)
	}

	selection := strings.TrimSpace(out.String())
	if selection == "" {
		return "", fmt.Errorf("no file selected")
	}
	return selection, nil
}

// clearKittyImages emits the kitty graphics "delete" control sequence.
// Terminals that don't understand it will ignore it.
func clearKittyImages() {
	if !isKitty() {
		return
	}
	fmt.Fprint(os.Stdout, "\x1b_Ga=d\x1b\\")
}
