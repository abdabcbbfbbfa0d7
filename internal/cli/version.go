package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output as JSON")
}

// VersionInfo contains version information
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

func runVersion(cmd *cobra.Command, args []string) error {
	if versionShort {
		fmt.Println(Version)
		return nil
	}
	info := VersionInfo{
		Version:   Version,
		GoVersion: runtime.Version(),
		Commit:    GitCommit,
		BuildDate: BuildDate,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if versionJSON {
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Printf("hotreload version %s\n", info.Version)
	fmt.Printf("  go:     %s\n", info.GoVersion)
	fmt.Printf("  commit: %s\n", info.Commit)
	fmt.Printf("  built:  %s\n", info.BuildDate)
	fmt.Printf("  target: %s/%s\n", info.OS, info.Arch)
	return nil
}
