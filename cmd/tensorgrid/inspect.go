package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tensorgrid-dev/tensorgrid/pkg/data"
)

func inspectCmd() *cobra.Command {
	var maxItems int

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Decode and summarize a model-state file",
		Long: `Decode a file containing the binary model-state format and print
its shape and a preview of its contents.

Example:
  tensorgrid inspect snapshot.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], maxItems)
		},
	}

	cmd.Flags().IntVar(&maxItems, "max-items", 8, "Preview items per level")

	return cmd
}

func runInspect(path string, maxItems int) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	d, err := data.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	fmt.Printf("file:  %s (%d bytes)\n", path, len(raw))
	fmt.Printf("shape: %s\n", formatShape(d.Shape()))
	fmt.Printf("items: %d\n", d.Len())
	printPreview(d, 0, maxItems)
	return nil
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, n := range shape {
		if n == data.Ragged {
			parts[i] = "?"
		} else {
			parts[i] = fmt.Sprintf("%d", n)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func printPreview(d *data.Data, depth, maxItems int) {
	indent := strings.Repeat("  ", depth+1)
	n := d.Len()
	shown := n
	if shown > maxItems {
		shown = maxItems
	}

	for i := 0; i < shown; i++ {
		if child, err := d.Child(i); err == nil {
			fmt.Printf("%s[%d] container %s\n", indent, i, formatShape(child.Shape()))
			printPreview(child, depth+1, maxItems)
			continue
		}
		el, err := d.Element(i)
		if err != nil {
			fmt.Printf("%s[%d] <error: %v>\n", indent, i, err)
			continue
		}
		fmt.Printf("%s[%d] %s %s\n", indent, i, el.Kind(), el.String())
	}
	if shown < n {
		fmt.Printf("%s... %d more\n", indent, n-shown)
	}
}
