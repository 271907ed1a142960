package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"trendgraph/internal/annotations"
	"trendgraph/internal/config"
	"trendgraph/internal/logger"
	"trendgraph/internal/models"
	"trendgraph/internal/palette"
)

// envPrefix is the prefix of environment variables read by the CLI
const envPrefix = "TRENDGRAPH"

// cli holds the state shared by every command of one invocation
type cli struct {
	v   *viper.Viper
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "trendgraph",
		Short: "Render trend charts and manage their date annotations",
		Long: `trendgraph renders trend series as interactive HTML or static PNG charts with
their date annotations drawn as markers, and manages those annotations in the
configured backend.

Every persistent flag can also be set as TRENDGRAPH_<FLAG> in the environment,
with dashes replaced by underscores, or in a YAML file passed with --config.`,
		Version:           config.GetVersion(),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML file with flag values")
	flags.String("backend", string(annotations.BackendMemory), "Annotation backend: memory, sqlite, mysql, postgres, dynamodb or remote")
	flags.String("dsn", "", "Connection string of the SQL annotation backend")
	flags.String("table", "trendgraph-annotations", "DynamoDB table of the dynamodb backend")
	flags.String("api-url", "", "Base URL of the remote annotation API")
	flags.String("api-token", "", "Bearer token for the remote annotation API")
	flags.String("viewer-name", "", "Name new annotations are attributed to")
	flags.String("viewer-email", "", "Email new annotations are attributed to")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	c.bindFlags(flags)

	root.AddCommand(newRenderCmd(c), newAnnotationsCmd(c), newMigrateCmd(c))
	return root
}

// bindFlags makes viper resolve each flag from the flag, the environment or the config file
func (c *cli) bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = c.v.BindPFlag(f.Name, f)
	})
}

// setup reads the config file, configures logging and validates the resolved settings
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if path := c.v.GetString("config"); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	level, ok := logger.ParseLevel(c.v.GetString("log-level"))
	if !ok {
		return fmt.Errorf("unknown log level %q", c.v.GetString("log-level"))
	}
	logger.SetGlobal(logger.New(logger.Config{
		Level:  level,
		Format: logger.TextFormat,
		Output: cmd.ErrOrStderr(),
	}))

	cfg, err := config.LoadFrom(cmd.Context(), c.env())
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// env maps the resolved flags onto the service configuration keys. Unset
// values are left out so the configuration defaults apply.
func (c *cli) env() map[string]string {
	env := map[string]string{
		"ANNOTATION_BACKEND":   c.v.GetString("backend"),
		"ANNOTATION_DB_DSN":    c.v.GetString("dsn"),
		"ANNOTATION_TABLE":     c.v.GetString("table"),
		"ANNOTATION_API_URL":   c.v.GetString("api-url"),
		"ANNOTATION_API_TOKEN": c.v.GetString("api-token"),
		"VIEWER_NAME":          c.v.GetString("viewer-name"),
		"VIEWER_EMAIL":         c.v.GetString("viewer-email"),
		"LOG_LEVEL":            c.v.GetString("log-level"),
		"CHART_ENGINE":         c.v.GetString("engine"),
		"DEFAULT_THEME":        c.v.GetString("theme"),
		"PALETTE_FILE":         c.v.GetString("palette"),
	}
	if w := c.v.GetInt("width"); w != 0 {
		env["CHART_WIDTH"] = strconv.Itoa(w)
	}
	if h := c.v.GetInt("height"); h != 0 {
		env["CHART_HEIGHT"] = strconv.Itoa(h)
	}
	for k, v := range env {
		if v == "" {
			delete(env, k)
		}
	}
	return env
}

// registry opens the configured annotation backend
func (c *cli) registry(ctx context.Context) (*annotations.Registry, error) {
	backend, err := annotations.NewBackend(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	viewer := models.Viewer{Name: c.cfg.ViewerName, Email: c.cfg.ViewerEmail}
	return annotations.NewRegistry(backend, viewer), nil
}

// palettes returns the built-in palettes or the ones from the configured file
func (c *cli) palettes() (palette.Resolver, error) {
	if c.cfg.PaletteFile == "" {
		return palette.New(), nil
	}
	p, err := palette.Load(c.cfg.PaletteFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load palette file: %w", err)
	}
	return p, nil
}
