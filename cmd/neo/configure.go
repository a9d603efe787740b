package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/neo/clientcli"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage site profiles",
	Long: `Manage site profiles in the configuration file.

A profile holds the API key, and optionally an endpoint, for one site.
Pick one with --profile or NEOCITIES_PROFILE; otherwise the default
profile is used.

Profiles live in ~/.neo/config.yaml unless --config says otherwise.`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Long:  "List every profile. The default one is marked with '*'.",
	Args:  cobra.NoArgs,
	RunE:  withCancel(runConfigureList),
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a profile",
	Long: `Add a profile, or update one that already exists.

The endpoint and API key are taken from --endpoint and --api-key (or
their NEOCITIES_ environment variables) when given, and prompted for
otherwise. The key is tried against the site before the profile is
saved.

Examples:
  neo configure add blog
  neo configure add local --endpoint http://localhost:5709 --api-key dev --yes`,
	Args: cobra.ExactArgs(1),
	RunE: withCancel(runConfigureAdd),
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    withCancel(runConfigureRemove),
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Make a profile the default",
	Args:  cobra.ExactArgs(1),
	RunE:  withCancel(runConfigureSetDefault),
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one profile",
	Long: `Show a profile, or the default profile when no name is given.
The API key is masked unless --show-secrets is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withCancel(runConfigureShow),
}

var (
	showSecrets bool
	assumeYes   bool
)

var errCancelled = errors.New("cancelled")

func init() {
	configureCmd.AddCommand(configureListCmd)
	configureCmd.AddCommand(configureAddCmd)
	configureCmd.AddCommand(configureRemoveCmd)
	configureCmd.AddCommand(configureSetDefaultCmd)
	configureCmd.AddCommand(configureShowCmd)

	configureCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to every confirmation")
	configureShowCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show API keys in full")
	configureListCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show API keys in full")
}

// withCancel turns a cancelled prompt into a clean exit.
func withCancel(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if errors.Is(err, errCancelled) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		return err
	}
}

// profileFile is the profiles file a configure command reads and writes.
type profileFile struct {
	*clientcli.ConfigFile
	path string
}

// openProfiles loads the profiles file. With allowMissing, a file that
// does not exist yet loads as empty.
func openProfiles(allowMissing bool) (*profileFile, error) {
	path, _ := current.configPath()
	if path == "" {
		return nil, errors.New("cannot determine config path; pass --config")
	}

	load := clientcli.LoadConfigFile
	if allowMissing {
		load = clientcli.LoadConfigFileOrEmpty
	}
	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &profileFile{ConfigFile: cfg, path: path}, nil
}

func (f *profileFile) save() error {
	if err := f.Save(f.path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

func runConfigureList(cmd *cobra.Command, _ []string) error {
	f, err := openProfiles(true)
	if err != nil {
		return err
	}

	if len(f.Profiles) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No profiles yet. Create one with 'neo configure add <name>'.")
		return nil
	}
	return getFormatter().FormatProfileList(cmd.OutOrStdout(), f.Profiles, f.DefaultProfileName(), showSecrets)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]

	f, err := openProfiles(true)
	if err != nil {
		return err
	}

	existing, _ := f.GetProfile(name)
	if existing != nil {
		if err := confirm(fmt.Sprintf("Profile '%s' exists. Overwrite it", name)); err != nil {
			return err
		}
	}

	p, err := promptProfile(name, existing)
	if err != nil {
		return err
	}

	p.Default = len(f.Profiles) == 0 || (existing != nil && name == f.DefaultProfileName())
	if !p.Default {
		if p.Default, err = ask("Make it the default profile"); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprint(out, "Checking API key... ")
	if checkErr := checkProfile(p); checkErr != nil {
		_, _ = fmt.Fprintf(out, "failed: %v\n", checkErr)
		if err := confirm("Save the profile anyway"); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(out, "ok")
	}

	if p.Default {
		for i := range f.Profiles {
			f.Profiles[i].Default = false
		}
	}
	if existing != nil {
		err = f.UpdateProfile(p)
	} else {
		err = f.AddProfile(p)
	}
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if err := f.save(); err != nil {
		return err
	}

	verb := "added"
	if existing != nil {
		verb = "updated"
	}
	if p.Default {
		_, _ = fmt.Fprintf(out, "Profile '%s' %s and set as default.\n", name, verb)
	} else {
		_, _ = fmt.Fprintf(out, "Profile '%s' %s.\n", name, verb)
	}
	return nil
}

// promptProfile fills in a profile's endpoint and API key. Values given by
// flag or environment are used as they are; the rest are prompted for,
// starting from the existing profile's values.
func promptProfile(name string, existing *clientcli.Profile) (clientcli.Profile, error) {
	p := clientcli.Profile{Name: name}

	endpoint := current.Endpoint
	if endpoint == "" {
		def := clientcli.DefaultEndpoint
		if existing != nil && existing.Endpoint != "" {
			def = existing.Endpoint
		}
		prompt := promptui.Prompt{Label: "Endpoint URL", Default: def, Validate: validateEndpoint}
		var err error
		if endpoint, err = prompt.Run(); err != nil {
			return p, promptError(err)
		}
	} else if err := validateEndpoint(endpoint); err != nil {
		return p, err
	}
	p.Endpoint = profileEndpoint(endpoint)

	p.APIKey = strings.TrimSpace(current.APIKey)
	if p.APIKey == "" {
		label := "API key"
		if existing != nil {
			label = "API key (empty keeps the current one)"
		}
		prompt := promptui.Prompt{
			Label: label,
			Mask:  '*',
			Validate: func(input string) error {
				if existing == nil && strings.TrimSpace(input) == "" {
					return clientcli.ErrAPIKeyRequired
				}
				return nil
			},
		}
		key, err := prompt.Run()
		if err != nil {
			return p, promptError(err)
		}
		p.APIKey = strings.TrimSpace(key)
		if p.APIKey == "" && existing != nil {
			p.APIKey = existing.APIKey
		}
	}
	return p, nil
}

func runConfigureRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	f, err := openProfiles(false)
	if err != nil {
		return err
	}
	if _, err := f.GetProfile(name); err != nil {
		return err
	}

	if err := confirm(fmt.Sprintf("Remove profile '%s'", name)); err != nil {
		return err
	}

	if err := f.RemoveProfile(name); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}
	if err := f.save(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(cmd *cobra.Command, args []string) error {
	f, err := openProfiles(false)
	if err != nil {
		return err
	}
	if err := f.SetDefault(args[0]); err != nil {
		return err
	}
	if err := f.save(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Default profile is now '%s'.\n", args[0])
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	f, err := openProfiles(false)
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}
	p, err := f.GetProfile(name)
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileShow(cmd.OutOrStdout(), *p, p.Name == f.DefaultProfileName(), showSecrets)
}

func validateEndpoint(input string) error {
	if input == "" {
		return errors.New("endpoint URL is required")
	}
	parsedURL, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	return nil
}

// profileEndpoint normalizes the entered endpoint. The default endpoint is
// not stored so the profile follows any future change to it.
func profileEndpoint(input string) string {
	endpoint := strings.TrimSuffix(strings.TrimSpace(input), "/")
	if endpoint == clientcli.DefaultEndpoint {
		return ""
	}
	return endpoint
}

// checkProfile lists the site with the profile's credentials.
// Any successful response means the key is accepted.
func checkProfile(p clientcli.Profile) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := clientcli.NewFromConfig(clientcli.ConfigFromProfile(&p), clientcli.WithHTTPClient(newHTTPClient()))
	if err != nil {
		return err
	}

	if _, err := client.List(ctx); err != nil {
		if errors.Is(err, clientcli.ErrUnauthorized) {
			return errors.New("the site rejected the API key")
		}
		return fmt.Errorf("could not reach site: %w", err)
	}
	return nil
}

// confirm asks a yes/no question where no means stop. It returns
// errCancelled unless the answer is yes or --yes was given.
func confirm(label string) error {
	yes, err := ask(label)
	if err != nil {
		return err
	}
	if !yes {
		return errCancelled
	}
	return nil
}

// ask asks a yes/no question. --yes answers it.
func ask(label string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	_, err := (&promptui.Prompt{Label: label, IsConfirm: true}).Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	default:
		return false, promptError(err)
	}
}

// promptError maps Ctrl-C and Ctrl-D at a prompt to errCancelled.
func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, io.EOF) {
		return errCancelled
	}
	return err
}
