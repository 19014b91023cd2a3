package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/pubstatic"
)

const envPrefix = "PUBSTATIC"

// cli carries the state shared by every subcommand.
type cli struct {
	cfgFile  string
	logLevel string
	v        *viper.Viper
	logger   *log.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "pubstatic",
		Short:         "A statically prerendered markdown blog engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.logger = newLogger(c.logLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		newServeCmd(c),
		newBuildCmd(c),
		newNewCmd(c),
		newVersionCmd(),
	)
	return root
}

func newLogger(level string) *log.Logger {
	l := log.New("pubstatic")
	l.SetHeader("${time_rfc3339} ${level} ${prefix}")
	switch strings.ToLower(level) {
	case "debug":
		l.SetLevel(log.DEBUG)
	case "warn":
		l.SetLevel(log.WARN)
	case "error":
		l.SetLevel(log.ERROR)
	default:
		l.SetLevel(log.INFO)
	}
	return l
}

// loadConfig reads config.yaml, PUBSTATIC_* environment variables and any
// flags already bound to c.v, in increasing order of precedence.
func (c *cli) loadConfig() (pubstatic.SiteConfig, error) {
	v := c.v
	defaults := pubstatic.DefaultConfig()
	v.SetDefault("name", defaults.Name)
	v.SetDefault("url", defaults.URL)
	v.SetDefault("description", defaults.Description)
	v.SetDefault("author", defaults.Author)
	v.SetDefault("language", defaults.Language)
	v.SetDefault("posts_per_page", defaults.PostsPerPage)
	v.SetDefault("nav", []map[string]string{})
	v.SetDefault("content_dir", defaults.ContentDir)
	v.SetDefault("static_dir", defaults.StaticDir)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("addr", defaults.Addr)
	v.SetDefault("strict_content", defaults.StrictContent)
	v.SetDefault("load_concurrency", defaults.LoadConcurrency)
	v.SetDefault("image_widths", defaults.ImageWidths)
	v.SetDefault("font_path", "")
	v.SetDefault("font_bold_path", "")
	v.SetDefault("logo_path", "")
	v.SetDefault("render_limit", defaults.RenderLimit)

	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || c.cfgFile != "" {
			return pubstatic.SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
		c.logger.Warnf("no config.yaml found, using defaults and %s_* environment", envPrefix)
	} else {
		c.logger.Infof("using config file %s", v.ConfigFileUsed())
	}

	var cfg pubstatic.SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return pubstatic.SiteConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// newApp loads the configuration and builds the App.
func (c *cli) newApp() (*pubstatic.App, pubstatic.SiteConfig, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	if _, err := os.Stat(cfg.ContentDir); err != nil {
		return nil, cfg, fmt.Errorf("content directory %q: %w", cfg.ContentDir, err)
	}
	app, err := pubstatic.New(cfg, pubstatic.WithLogger(c.logger))
	if err != nil {
		return nil, cfg, err
	}
	return app, cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pubstatic version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pubstatic %s\n", version)
		},
	}
}
