package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Fepozopo/milk/pkg/milk"
)

func usage() {
	fmt.Println("Commands available:")
	fmt.Println("  /  - set a filter option (or '/name value')")
	fmt.Println("  p  - reprocess and preview")
	fmt.Println("  c  - show current options")
	fmt.Println("  o  - open another image")
	fmt.Println("  s  - save processed image")
	fmt.Println("  u  - check for updates")
	fmt.Println("  h  - show this help message")
	fmt.Println("  q  - quit")
}

// RunCLI starts the shell. With two or more arguments it runs in batch mode:
//
//	milk <input> <output> [name=value ...]
//
// With a single argument the image is opened before the interactive loop.
func RunCLI() {
	if err := ConfigureLogging(os.Stderr, os.Getenv("MILK_LOG")); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}

	args := os.Args[1:]
	if len(args) >= 2 {
		if err := RunBatch(args); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	store := NewOptionStore(milk.Options)
	m := milk.New()
	if len(args) == 1 {
		if err := openImage(m, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "failed to read image %s: %v\n", args[0], err)
			os.Exit(1)
		}
	}

	fmt.Println("milk - terminal image filter")
	usage()
	runShell(stdin, store, m)
}

// runShell reads commands from r until 'q', end of input or a read error.
func runShell(r *bufio.Reader, store *OptionStore, m *milk.Image) {
	for {
		fmt.Print("> ")
		line, err := readLine(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(os.Stderr, "read input error: %v\n", err)
			}
			fmt.Println()
			return
		}
		if line == "" {
			continue
		}

		switch line[0] {
		case '/':
			if err := setOption(store, m, strings.TrimSpace(line[1:])); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				continue
			}
			if m.State() != milk.StateEmpty {
				reprocess(m)
			}

		case 'p':
			if m.State() == milk.StateEmpty {
				fmt.Println("No image loaded. Press 'o' to open an image first, or provide an image path as the first argument.")
				continue
			}
			reprocess(m)

		case 'c':
			fmt.Println(FormatConfig(store, m.Config()))

		case 'o':
			selected, selErr := SelectFileWithFzf(".")
			path := selected
			if selErr != nil || selected == "" {
				path, _ = PromptLine("Enter path to image to open (leave empty to cancel): ")
				if path == "" {
					fmt.Println("open cancelled")
					continue
				}
			}
			if err := openImage(m, path); err != nil {
				fmt.Fprintf(os.Stderr, "failed to read image %s: %v\n", path, err)
				continue
			}

		case 's':
			if m.State() != milk.StateProcessed {
				fmt.Println("Nothing to save yet. Open an image first.")
				continue
			}
			def := DefaultOutputName()
			out, _ := PromptLine(fmt.Sprintf("Enter output filename [%s]: ", def))
			if out == "" {
				out = def
			}
			saved, err := SaveImage(out, m)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to write image: %v\n", err)
				continue
			}
			fmt.Printf("Saved to %s\n", saved)

		case 'u':
			if err := CheckForUpdates(); err != nil {
				fmt.Fprintf(os.Stderr, "update check error: %v\n", err)
			}

		case 'h':
			usage()

		case 'q':
			fmt.Println("Exiting...")
			return

		default:
			fmt.Printf("unknown command %q, press 'h' for help\n", line)
		}
	}
}

// openImage loads path, processes it with the current options and previews it.
func openImage(m *milk.Image, path string) error {
	if err := LoadImageFile(m, path); err != nil {
		return err
	}
	fmt.Printf("Opened %s\n", path)
	reprocess(m)
	return nil
}

// reprocess runs the pipeline and shows the result.
func reprocess(m *milk.Image) {
	if err := m.Process(); err != nil {
		fmt.Fprintf(os.Stderr, "process error: %v\n", err)
		return
	}
	if PreviewSupported() {
		if err := PreviewImage(m.Processed()); err != nil {
			debugf("preview failed: %v", err)
		}
	}
	if info, err := GetImageInfo(m); err == nil {
		fmt.Println(info)
	}
}

// setOption handles the '/' command. arg may be empty (pick interactively),
// a name, or "name value".
func setOption(store *OptionStore, m *milk.Image, arg string) error {
	name, value, hasValue := strings.Cut(arg, " ")
	if name == "" {
		picked, err := pickOption(store, m.Config())
		if err != nil {
			return err
		}
		name = picked
	}
	o, candidates, ok := store.Lookup(name)
	if !ok {
		if len(candidates) > 0 {
			return fmt.Errorf("ambiguous option %q, candidates: %s", name, strings.Join(candidates, ", "))
		}
		return fmt.Errorf("unknown option: %s", name)
	}
	if !hasValue {
		fmt.Println()
		printOptionHelp(store, o.Name)
		fmt.Println()
		cur, _ := m.Config().Get(o.Name)
		v, err := PromptLine(fmt.Sprintf("%s [%s]: ", o.Name, cur))
		if err != nil {
			return fmt.Errorf("input error: %w", err)
		}
		if v == "" {
			fmt.Println("unchanged")
			return nil
		}
		value = v
	}
	if err := ApplyOption(store, m.Config(), o.Name, value); err != nil {
		return fmt.Errorf("input validation error: %w", err)
	}
	v, _ := m.Config().Get(o.Name)
	fmt.Printf("%s = %s\n", o.Name, v)
	return nil
}

// printOptionHelp shows the tooltip and the accepted values for name.
func printOptionHelp(store *OptionStore, name string) {
	tooltip, rule, err := store.GetOptionHelp(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(tooltip)
	fmt.Println("accepted: " + rule.Accepted())
}

// pickOption selects an option with fzf, falling back to a numbered list.
func pickOption(store *OptionStore, cfg *milk.Config) (string, error) {
	if name, err := SelectOptionWithFzf(store.Options, cfg); err == nil && name != "" {
		return name, nil
	}
	fmt.Println("Option selection (fallback):")
	for i, o := range store.Options {
		v, _ := cfg.Get(o.Name)
		fmt.Printf("  %2d) %-10s [%s] - %s\n", i+1, o.Name, v, o.Description)
	}
	selection, _ := PromptLine("Enter number or option name (leave empty to cancel): ")
	if selection == "" {
		return "", errors.New("selection cancelled")
	}
	if idx, err := strconv.Atoi(selection); err == nil {
		if idx < 1 || idx > len(store.Options) {
			return "", errors.New("invalid selection")
		}
		return store.Options[idx-1].Name, nil
	}
	return selection, nil
}

// RunBatch processes one file without interaction. args are the input path,
// the output path and optional name=value option assignments.
func RunBatch(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: milk <input> <output> [name=value ...]")
	}
	store := NewOptionStore(milk.Options)
	m := milk.New()
	for _, kv := range args[2:] {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid option assignment %q, want name=value", kv)
		}
		if err := ApplyOption(store, m.Config(), name, value); err != nil {
			return err
		}
	}
	if err := LoadImageFile(m, args[0]); err != nil {
		return fmt.Errorf("failed to read image %s: %w", args[0], err)
	}
	if err := m.Process(); err != nil {
		return err
	}
	saved, err := SaveImage(args[1], m)
	if err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	fmt.Printf("Saved to %s\n", saved)
	return nil
}
