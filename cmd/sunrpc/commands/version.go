package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/marmos91/sunrpc/internal/cli/timeutil"
)

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func (v versionInfo) Headers() []string {
	return []string{"Version", "Commit", "Built", "Go", "Platform"}
}

func (v versionInfo) Rows() [][]string {
	return [][]string{{v.Version, v.Commit, timeutil.FormatTime(v.Date), v.GoVersion, v.Platform}}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPrinter(cmd)
		if err != nil {
			return err
		}
		return p.Print(versionInfo{
			Version:   Version,
			Commit:    Commit,
			Date:      Date,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		})
	},
}
