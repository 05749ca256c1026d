package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tcnksm/go-latest"
)

func newVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vulnforge %s (commit: %s, built: %s, go: %s)\n", Version, Commit, BuildDate, runtime.Version())
			if !check {
				return
			}
			res, err := latest.Check(&latest.GithubTag{
				Owner:      "ppiankov",
				Repository: "vulnforge",
			}, strings.TrimPrefix(Version, "v"))
			if err != nil {
				fmt.Fprintf(out, "update check failed: %v\n", err)
				return
			}
			if res.Outdated {
				fmt.Fprintf(out, "A new version is available: %s\n", res.Current)
			} else {
				fmt.Fprintln(out, "You are using the latest version.")
			}
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
