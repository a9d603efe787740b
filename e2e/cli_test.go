package e2e_test

import (
	"crypto/sha1" //#nosec G505
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_CLI_PushListDelete drives the neo binary against the fakesite binary.
func TestE2E_CLI_PushListDelete(t *testing.T) {
	baseURL, siteDir := startSite(t)
	env := []string{
		"NEOCITIES_API_KEY=" + testAPIKey,
		"NEOCITIES_ENDPOINT=" + baseURL,
	}

	localDir := t.TempDir()
	content := "body { color: teal; }"
	local := writeLocalFile(t, localDir, "build/style.css", content)
	sum := sha1.Sum([]byte(content)) //#nosec G401
	wantHash := hex.EncodeToString(sum[:])

	t.Run("push", func(t *testing.T) {
		res := runNeo(t, env, "push", local)
		require.Equal(t, 0, res.ExitCode, res.Stderr)
		assert.Contains(t, res.Stdout, "-> style.css")

		_, err := os.Stat(filepath.Join(siteDir, "style.css"))
		assert.NoError(t, err)
	})

	t.Run("push into directory", func(t *testing.T) {
		res := runNeo(t, env, "push", "--to", "assets/css", local)
		require.Equal(t, 0, res.ExitCode, res.Stderr)

		_, err := os.Stat(filepath.Join(siteDir, "assets", "css", "style.css"))
		assert.NoError(t, err)
	})

	t.Run("list", func(t *testing.T) {
		res := runNeo(t, env, "list")
		require.Equal(t, 0, res.ExitCode, res.Stderr)

		assert.Contains(t, res.Stdout, wantHash+" style.css\n")
		assert.Contains(t, res.Stdout, wantHash+" assets/css/style.css\n")
		assert.Contains(t, res.Stdout, " assets\n")
	})

	t.Run("list json", func(t *testing.T) {
		res := runNeo(t, env, "list", "--json")
		require.Equal(t, 0, res.ExitCode, res.Stderr)

		var out struct {
			Files []struct {
				Path     string `json:"path"`
				SHA1Hash string `json:"sha1_hash"`
			} `json:"files"`
		}
		require.NoError(t, json.Unmarshal([]byte(res.Stdout), &out))
		require.NotEmpty(t, out.Files)
	})

	t.Run("delete", func(t *testing.T) {
		res := runNeo(t, env, "delete", "style.css", "assets")
		require.Equal(t, 0, res.ExitCode, res.Stderr)
		assert.Contains(t, res.Stdout, "Deleted: style.css")

		res = runNeo(t, env, "list")
		require.Equal(t, 0, res.ExitCode, res.Stderr)
		assert.NotContains(t, res.Stdout, "style.css")
	})

	t.Run("delete missing file fails", func(t *testing.T) {
		res := runNeo(t, env, "delete", "style.css")
		assert.NotEqual(t, 0, res.ExitCode)
		assert.Contains(t, res.Stderr, "400")
	})
}

func TestE2E_CLI_Errors(t *testing.T) {
	baseURL, _ := startSite(t)

	t.Run("missing api key", func(t *testing.T) {
		res := runNeo(t, []string{"NEOCITIES_ENDPOINT=" + baseURL}, "list")
		assert.NotEqual(t, 0, res.ExitCode)
		assert.Contains(t, res.Stderr, "api key is required")
	})

	t.Run("wrong api key", func(t *testing.T) {
		res := runNeo(t, []string{"NEOCITIES_ENDPOINT=" + baseURL}, "--api-key", "nope", "list")
		assert.NotEqual(t, 0, res.ExitCode)
		assert.Contains(t, res.Stderr, "401")
	})

	t.Run("wrong api key json", func(t *testing.T) {
		res := runNeo(t, []string{"NEOCITIES_ENDPOINT=" + baseURL, "NEOCITIES_API_KEY=nope"}, "--json", "list")
		assert.NotEqual(t, 0, res.ExitCode)

		var out struct {
			Kind       string `json:"kind"`
			StatusCode int    `json:"status_code"`
		}
		require.NoError(t, json.Unmarshal([]byte(res.Stderr), &out))
		assert.Equal(t, "api", out.Kind)
		assert.Equal(t, 401, out.StatusCode)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		res := runNeo(t, []string{"NEOCITIES_API_KEY=" + testAPIKey}, "--endpoint", "http://127.0.0.1:1", "list")
		assert.NotEqual(t, 0, res.ExitCode)
	})

	t.Run("missing local file", func(t *testing.T) {
		res := runNeo(t, []string{"NEOCITIES_ENDPOINT=" + baseURL, "NEOCITIES_API_KEY=" + testAPIKey},
			"push", filepath.Join(t.TempDir(), "nope.html"))
		assert.NotEqual(t, 0, res.ExitCode)
		assert.Contains(t, res.Stderr, "nope.html")
	})
}

func TestE2E_CLI_Profiles(t *testing.T) {
	baseURL, _ := startSite(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := "profiles:\n" +
		"  - name: local\n" +
		"    endpoint: " + baseURL + "\n" +
		"    api_key: " + testAPIKey + "\n" +
		"  - name: broken\n" +
		"    endpoint: " + baseURL + "\n" +
		"    api_key: wrong\n"
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))

	t.Run("first profile is default", func(t *testing.T) {
		res := runNeo(t, nil, "--config", configPath, "list")
		assert.Equal(t, 0, res.ExitCode, res.Stderr)
	})

	t.Run("named profile", func(t *testing.T) {
		res := runNeo(t, nil, "--config", configPath, "--profile", "broken", "list")
		assert.NotEqual(t, 0, res.ExitCode)
	})

	t.Run("profile from env", func(t *testing.T) {
		res := runNeo(t, []string{"NEOCITIES_PROFILE=broken", "NEOCITIES_CONFIG=" + configPath}, "list")
		assert.NotEqual(t, 0, res.ExitCode)
	})

	t.Run("flag overrides profile key", func(t *testing.T) {
		res := runNeo(t, nil, "--config", configPath, "--profile", "broken", "--api-key", testAPIKey, "list")
		assert.Equal(t, 0, res.ExitCode, res.Stderr)
	})

	t.Run("set default and show", func(t *testing.T) {
		res := runNeo(t, nil, "--config", configPath, "configure", "set-default", "broken")
		require.Equal(t, 0, res.ExitCode, res.Stderr)

		res = runNeo(t, nil, "--config", configPath, "configure", "show")
		require.Equal(t, 0, res.ExitCode, res.Stderr)
		assert.Contains(t, res.Stdout, "broken (default)")

		res = runNeo(t, nil, "--config", configPath, "configure", "list")
		require.Equal(t, 0, res.ExitCode, res.Stderr)
		assert.Contains(t, res.Stdout, "* broken")
	})
}

func TestE2E_CLI_ConfigureWithoutPrompts(t *testing.T) {
	baseURL, _ := startSite(t)
	configPath := filepath.Join(t.TempDir(), "neo", "config.yaml")

	t.Run("add from flags", func(t *testing.T) {
		res := runNeo(t, nil, "--config", configPath,
			"configure", "add", "local", "--endpoint", baseURL, "--api-key", testAPIKey, "--yes")
		require.Equal(t, 0, res.ExitCode, res.Stderr)
		assert.Contains(t, res.Stdout, "Checking API key... ok")
		assert.Contains(t, res.Stdout, "Profile 'local' added and set as default.")

		info, err := os.Stat(configPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("profile is used", func(t *testing.T) {
		res := runNeo(t, nil, "--config", configPath, "list")
		assert.Equal(t, 0, res.ExitCode, res.Stderr)
	})

	t.Run("rejected key saved with yes", func(t *testing.T) {
		res := runNeo(t, nil, "--config", configPath,
			"configure", "add", "stale", "--endpoint", baseURL, "--api-key", "wrong", "--yes")
		require.Equal(t, 0, res.ExitCode, res.Stderr)
		assert.Contains(t, res.Stdout, "rejected the API key")
		assert.Contains(t, res.Stdout, "Profile 'stale' added and set as default.")
	})

	t.Run("remove", func(t *testing.T) {
		res := runNeo(t, nil, "--config", configPath, "configure", "rm", "stale", "--yes")
		require.Equal(t, 0, res.ExitCode, res.Stderr)
		assert.Contains(t, res.Stdout, "Profile 'stale' removed.")

		res = runNeo(t, nil, "--config", configPath, "configure", "show", "stale")
		assert.NotEqual(t, 0, res.ExitCode)
		assert.Contains(t, res.Stderr, "profile not found")
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		res := runNeo(t, nil, "--config", configPath,
			"configure", "add", "bad", "--endpoint", "localhost:5709", "--api-key", testAPIKey, "--yes")
		assert.NotEqual(t, 0, res.ExitCode)
		assert.Contains(t, res.Stderr, "http://")
	})
}
