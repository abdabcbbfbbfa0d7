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

// parseCmd compiles the templates of one source file and prints them.
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Print the compiled templates of a source file",
	Long: `Parse one Go source file, compile every template literal it
contains, and print the result.

Examples:
  hotreload parse app/views.go
  hotreload parse app/views.go --json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

var parseJSON bool

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Output compiled templates as JSON")
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	invocations, err := source.Parse(data, hotreload.DefaultMacros)
	if err != nil {
		return err
	}
	if len(invocations) == 0 {
		fmt.Printf("%s: no template invocations\n", path)
		return nil
	}

	for _, inv := range invocations {
		body, err := rsx.Parse(inv.Body)
		if err != nil {
			return fmt.Errorf("%s:%d:%d: %w", path, inv.Line, inv.Column, err)
		}
		base := fmt.Sprintf("%s:%d:%d", path, inv.Line, inv.Column)
		nested := body.NestedBodies()
		indices := make([]int, 0, len(nested))
		for idx := range nested {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			tmpl := nested[idx].Compile(rsx.FormatName(base, idx))
			if parseJSON {
				out, err := json.MarshalIndent(tmpl, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				continue
			}
			fmt.Printf("%s  roots=%d  dynamic_nodes=%d  dynamic_attrs=%d\n",
				tmpl.Name, len(tmpl.Roots), len(tmpl.NodePaths), len(tmpl.AttrPaths))
		}
	}
	return nil
}
