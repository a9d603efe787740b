// Command fakesite serves a directory through the hosting API's list,
// upload and delete endpoints, for trying neo out locally.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lmittmann/tint"
	"github.com/sagarc03/neo/fakesite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

type serverConfig struct {
	Port        int      `mapstructure:"port" validate:"min=1,max=65535"`
	Root        string   `mapstructure:"root" validate:"required"`
	APIKey      string   `mapstructure:"api_key" validate:"required"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	LogLevel    string   `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

var rootCmd = &cobra.Command{
	Use:     "fakesite",
	Version: version,
	Short:   "Serve a local directory as a fake Neocities site",
	Long: `fakesite serves a local directory through /api/list, /api/upload and
/api/delete, accepting a single API key. Point neo at it with
--endpoint http://localhost:<port>.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.Flags().Int("port", 5709, "HTTP server port (env: FAKESITE_PORT)")
	rootCmd.Flags().String("root", "./site", "directory holding the site's files (env: FAKESITE_ROOT)")
	rootCmd.Flags().String("api-key", "", "API key clients must present (env: FAKESITE_API_KEY)")
	rootCmd.Flags().StringSlice("cors-origins", nil, "origins allowed to call the API from a browser")
	rootCmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("root", rootCmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("api_key", rootCmd.Flags().Lookup("api-key"))
	_ = viper.BindPFlag("cors_origins", rootCmd.Flags().Lookup("cors-origins"))
	_ = viper.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))

	viper.SetEnvPrefix("FAKESITE")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*serverConfig, error) {
	var cfg serverConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      l,
		TimeFormat: "15:04:05.000",
	})))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	if err := os.MkdirAll(cfg.Root, 0o750); err != nil {
		return fmt.Errorf("create site directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Root)
	if err != nil {
		return fmt.Errorf("open site root: %w", err)
	}
	defer func() { _ = root.Close() }()

	var opts []fakesite.Option
	if len(cfg.CORSOrigins) > 0 {
		opts = append(opts, fakesite.WithCORS(cfg.CORSOrigins...))
	}
	site := fakesite.New(root, cfg.APIKey, opts...)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      site.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
	}()

	slog.Info("starting server", "addr", addr, "root", cfg.Root)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
