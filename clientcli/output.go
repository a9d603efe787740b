package clientcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Formatter formats results for output.
type Formatter interface {
	FormatList(w io.Writer, files []RemoteFile) error
	FormatPush(w io.Writer, entries []UploadEntry) error
	FormatDelete(w io.Writer, paths []string) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatList prints one "<sha1> <path>" line per entry. Directories have
// no hash, so their line starts with a single space.
func (f *HumanFormatter) FormatList(w io.Writer, files []RemoteFile) error {
	for i := range files {
		_, _ = fmt.Fprintf(w, "%s %s\n", files[i].Hash(), files[i].Path)
	}
	return nil
}

// FormatPush formats upload results as human-readable text.
func (f *HumanFormatter) FormatPush(w io.Writer, entries []UploadEntry) error {
	if f.Quiet {
		return nil
	}
	for i := range entries {
		_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s\n", entries[i].Source, entries[i].Destination)
	}
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, paths []string) error {
	if f.Quiet {
		return nil
	}
	for _, p := range paths {
		_, _ = fmt.Fprintf(w, "Deleted: %s\n", p)
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		maxNameLen = max(maxNameLen, len(profiles[i].Name))
		maxEndpointLen = max(maxEndpointLen, len(endpointOrDefault(profiles[i].Endpoint)))
	}
	maxNameLen = min(maxNameLen, 20)
	maxEndpointLen = min(maxEndpointLen, 50)

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "API KEY")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n",
			marker,
			maxNameLen, truncate(p.Name, maxNameLen),
			maxEndpointLen, truncate(endpointOrDefault(p.Endpoint), maxEndpointLen),
			maskSecret(p.APIKey, showSecrets),
		)
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", endpointOrDefault(profile.Endpoint))
	_, _ = fmt.Fprintf(w, "API Key:  %s\n", maskSecret(profile.APIKey, showSecrets))
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatList formats the listing as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, files []RemoteFile) error {
	if files == nil {
		files = []RemoteFile{}
	}
	output := struct {
		Files []RemoteFile `json:"files"`
	}{
		Files: files,
	}
	return writeJSON(w, output)
}

// FormatPush formats upload results as JSON.
func (f *JSONFormatter) FormatPush(w io.Writer, entries []UploadEntry) error {
	if entries == nil {
		entries = []UploadEntry{}
	}
	output := struct {
		Uploaded []UploadEntry `json:"uploaded"`
	}{
		Uploaded: entries,
	}
	return writeJSON(w, output)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, paths []string) error {
	if paths == nil {
		paths = []string{}
	}
	output := struct {
		Deleted []string `json:"deleted"`
	}{
		Deleted: paths,
	}
	return writeJSON(w, output)
}

// FormatError formats an error as JSON. Errors from the client carry
// their kind, and API errors their status code.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error      string `json:"error"`
		Kind       string `json:"kind,omitempty"`
		StatusCode int    `json:"status_code,omitempty"`
	}{
		Error: err.Error(),
	}

	var clientErr *Error
	if errors.As(err, &clientErr) {
		output.Kind = clientErr.Kind.String()
		output.StatusCode = clientErr.StatusCode
	}

	return writeJSON(w, output)
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		APIKey   string `json:"api_key,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:     p.Name,
			Endpoint: endpointOrDefault(p.Endpoint),
			APIKey:   maskSecret(p.APIKey, showSecrets),
			Default:  p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		APIKey   string `json:"api_key"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: endpointOrDefault(profile.Endpoint),
		APIKey:   maskSecret(profile.APIKey, showSecrets),
		Default:  isDefault,
	}

	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func endpointOrDefault(endpoint string) string {
	if endpoint == "" {
		return DefaultEndpoint
	}
	return endpoint
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the key unmasked.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
