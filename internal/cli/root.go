// Package cli implements the seoforge command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/seoforge/seoforge/internal/config"
	"github.com/seoforge/seoforge/internal/core"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/seoforge/seoforge/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		"  ___  ___  ___  / _| ___  _ __ __ _  ___\n" +
		" / __|/ _ \\/ _ \\| |_ / _ \\| '__/ _` |/ _ \\\n" +
		" \\__ \\  __/ (_) |  _| (_) | | | (_| |  __/\n" +
		" |___/\\___|\\___/|_|  \\___/|_|  \\__, |\\___|\n" +
		"                               |___/\n"
)

var rootCmd = &cobra.Command{
	Use:   "seoforge",
	Short: "seoforge - content approval and publication safety pipeline",
	Long:  color.CyanString(logo) + "\nKeyword-to-publication pipeline with human validation and a kill switch.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(siteCmd)
	rootCmd.AddCommand(keywordCmd)
	rootCmd.AddCommand(briefCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(cycleCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(alertsCmd)
}

// openCore loads configuration and assembles the pipeline.
func openCore() (*core.Core, error) {
	path, err := config.Path()
	if err != nil {
		return nil, err
	}
	loader, err := config.NewLoader(path)
	if err != nil {
		return nil, err
	}
	return core.New(loader)
}

func resultOf(data any) core.Result {
	return core.Result{OK: true, Data: data}
}

// renderResult prints a core.Result: payload JSON on success, red error kind
// and message (with a non-zero exit) otherwise.
func renderResult(res core.Result) {
	if !res.OK {
		color.Red("error (%s): %s", res.ErrorKind, res.Error)
		os.Exit(1)
	}
	if res.Data == nil {
		color.Green("ok")
		return
	}
	out, err := json.MarshalIndent(res.Data, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", res.Data)
		return
	}
	fmt.Println(string(out))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the seoforge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("seoforge %s\n", version)
	},
}
