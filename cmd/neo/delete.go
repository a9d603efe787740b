package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <remote-path> [remote-path...]",
	Aliases: []string{"rm"},
	Short:   "Delete files from the site",
	Long: `Delete one or more files or directories from the site in a single request.

Paths are sent exactly as given.

Examples:
  neo delete old.html
  neo delete img/a.png img/b.png
  neo delete -q drafts`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(_ *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	if err := client.Delete(context.Background(), args); err != nil {
		return err
	}

	return getFormatter().FormatDelete(os.Stdout, args)
}
