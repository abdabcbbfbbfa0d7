package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/livefir/hotreload"
	"github.com/livefir/hotreload/internal/source"
	"github.com/livefir/hotreload/rsx"
)

// diffCmd diffs two versions of one source file and reports whether the
// edit is hot-patchable.
var diffCmd = &cobra.Command{
	Use:   "diff <old-file> <new-file>",
	Short: "Diff two versions of a source file",
	Long: `Compare two versions of the same source file and report whether
the edit could be applied as a hot patch.

Examples:
  hotreload diff views.go.orig views.go
  hotreload diff views.go.orig views.go --json`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var diffJSON bool

func init() {
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output patched templates as JSON")
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldSrc, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	newSrc, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	res, err := source.Diff(oldSrc, newSrc, hotreload.DefaultMacros)
	if err != nil {
		return err
	}
	switch res.Outcome {
	case source.Unchanged:
		fmt.Println("unchanged")
		return nil
	case source.CodeChanged:
		fmt.Println("needs rebuild: code changed outside of templates")
		return nil
	}

	for _, ch := range res.Changes {
		oldBody, err := rsx.Parse(ch.Old.Body)
		if err != nil {
			return fmt.Errorf("%s:%d:%d: %w", args[0], ch.Old.Line, ch.Old.Column, err)
		}
		newBody, err := rsx.Parse(ch.New.Body)
		if err != nil {
			return fmt.Errorf("%s:%d:%d: %w", args[1], ch.New.Line, ch.New.Column, err)
		}
		base := fmt.Sprintf("%s:%d:%d", args[1], ch.Old.Line, ch.Old.Column)
		result, ok := rsx.Reload(oldBody, newBody, base)
		if !ok {
			fmt.Printf("%s: needs rebuild: template change is not hot-patchable\n", base)
			continue
		}
		indices := make([]int, 0, len(result.Templates))
		for idx := range result.Templates {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			tmpl := result.Templates[idx]
			if diffJSON {
				out, err := json.MarshalIndent(tmpl, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				continue
			}
			fmt.Printf("patch %s (sub-template %d)\n", tmpl.Name, idx)
		}
	}
	return nil
}
