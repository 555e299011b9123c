package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/abustosp/app-presupuesto/internal/cli/config"
	"github.com/abustosp/app-presupuesto/internal/cli/connection"
	"github.com/abustosp/app-presupuesto/internal/cli/output"
	"github.com/abustosp/app-presupuesto/internal/infra/buildinfo"
	"github.com/abustosp/app-presupuesto/internal/infra/tlsroots"
)

const metaConfig = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "presupuesto-cli",
		Usage:                "Manage budget snapshots on a presupuesto server",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			BudgetCommand(),
			HealthCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = map[string]any{}
			}
			c.App.Metadata[metaConfig] = cfg
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "presupuesto server URL (e.g., http://127.0.0.1:8000)",
			EnvVars: []string{"PRESUPUESTO_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			EnvVars: []string{"PRESUPUESTO_OUTPUT"},
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "Extra PEM CA bundle trusted for https servers",
			EnvVars: []string{"PRESUPUESTO_CA_FILE"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file (default ~/.presupuesto/cli.yaml)",
			EnvVars: []string{"PRESUPUESTO_CLI_CONFIG"},
		},
	}
}

// GlobalFlags holds the resolved global settings.
type GlobalFlags struct {
	Server  string
	CAFile  string
	Output  output.Format
	Wide    bool
	Timeout time.Duration
}

// ParseGlobalFlags resolves global settings. Flags and environment beat the
// config file, which beats the built-in defaults.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig)
	if !ok {
		cfg = config.Default()
	}

	flags := &GlobalFlags{
		Server:  cfg.Server,
		CAFile:  cfg.CAFile,
		Wide:    c.Bool("wide"),
		Timeout: cfg.Timeout,
	}
	if c.IsSet("server") {
		flags.Server = c.String("server")
	}
	if c.IsSet("ca-file") {
		flags.CAFile = c.String("ca-file")
	}
	if c.IsSet("timeout") {
		flags.Timeout = c.Duration("timeout")
	}

	format := cfg.Output
	if c.IsSet("output") {
		format = c.String("output")
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	flags.Output = f
	return flags, nil
}

// EnsureConnected returns an HTTP client for the resolved server.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	if flags.Server == "" {
		return nil, nil, fmt.Errorf("server address required (--server or PRESUPUESTO_SERVER)")
	}

	var opts []connection.ClientOption
	if flags.CAFile != "" {
		tlsCfg, err := tlsroots.ClientTLSConfigWithCA(flags.CAFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, connection.WithTLSConfig(tlsCfg))
	}
	return connection.NewHTTPClient(flags.Server, flags.Timeout, opts...), flags, nil
}

// contextWithTimeout bounds one command's requests.
func contextWithTimeout(c *cli.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		timeout = connection.DefaultTimeout
	}
	return context.WithTimeout(parent, timeout)
}

// render writes data to the app's writer in the selected format.
func render(c *cli.Context, flags *GlobalFlags, data any) error {
	return output.NewFormatter(flags.Output, flags.Wide).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func reader(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}
