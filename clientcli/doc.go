// Package clientcli provides a client library for a Neocities-style static
// site hosting API.
//
// It supports listing the files of an account, uploading a batch of local
// files in one multipart request, and deleting a batch of remote paths.
// Every call is a single HTTP exchange authenticated with a bearer API key;
// nothing is retried.
//
// # Basic Usage
//
//	client := clientcli.New(os.Getenv("NEOCITIES_API_KEY"))
//
//	err := client.Push(ctx, []clientcli.UploadEntry{
//		{Destination: "index.html", Source: "./public/index.html"},
//		{Destination: "css/site.css", Source: "./public/css/site.css"},
//	})
//
//	files, err := client.List(ctx)
//
// # Errors
//
// All failures are *clientcli.Error values. Use errors.Is with the
// sentinels to tell them apart:
//
//	if errors.Is(err, clientcli.ErrUnauthorized) {
//		// bad API key
//	}
//	if errors.Is(err, clientcli.ErrInvalidPath) {
//		// rejected locally, nothing was sent
//	}
//
// # Profile Configuration
//
// Profiles store API keys for several sites in ~/.neo/config.yaml:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	profile, err := configFile.GetProfile("blog")
//	client, err := clientcli.NewFromConfig(clientcli.ConfigFromProfile(profile))
package clientcli
