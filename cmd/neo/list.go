package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files on the site",
	Long: `List every file and directory on the site.

Each line shows the file's SHA-1 hash and its path. Directories have no
hash, so their lines start with a space.

Examples:
  neo list
  neo list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(_ *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	files, err := client.List(context.Background())
	if err != nil {
		return err
	}

	return getFormatter().FormatList(os.Stdout, files)
}
