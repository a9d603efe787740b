package main

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"

	"github.com/sagarc03/neo/clientcli"
	"github.com/spf13/cobra"
)

var pushTo string

var errNoLocalFileName = errors.New("local path has no file name")

var pushCmd = &cobra.Command{
	Use:   "push <local-path> [local-path...]",
	Short: "Upload files to the site",
	Long: `Upload one or more local files in a single request.

Each file lands at the site root under its own file name, or under the
directory given with --to.

Examples:
  neo push index.html
  neo push build/index.html build/style.css
  neo push --to images photos/cat.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVarP(&pushTo, "to", "t", "", "remote directory to upload into")
}

func runPush(_ *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	entries, err := buildEntries(args, pushTo)
	if err != nil {
		return err
	}
	if err := client.Push(context.Background(), entries); err != nil {
		return err
	}

	return getFormatter().FormatPush(os.Stdout, entries)
}

// buildEntries pairs each local path with its destination on the site.
// A local path with no file name is rejected before --to is applied.
func buildEntries(localPaths []string, remoteDir string) ([]clientcli.UploadEntry, error) {
	remoteDir = strings.Trim(remoteDir, "/")

	entries := make([]clientcli.UploadEntry, 0, len(localPaths))
	for _, p := range localPaths {
		entry := clientcli.EntryFromPath(p)
		if entry.Destination == "" {
			return nil, &clientcli.Error{Kind: clientcli.KindPath, Path: p, Err: errNoLocalFileName}
		}
		if remoteDir != "" {
			entry.Destination = path.Join(remoteDir, entry.Destination)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
