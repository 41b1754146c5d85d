package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/animalet/dockerhost-go/pkg/config"
	"github.com/animalet/dockerhost-go/pkg/endpoint"
	"github.com/animalet/dockerhost-go/pkg/server"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version information set during build
var (
	version = "dev"
)

const (
	exitSuccess = 0
	exitError   = 1
)

type options struct {
	configPath  string
	host        string
	certPath    string
	port        string
	format      string
	serve       string
	debug       bool
	showVersion bool
	showHelp    bool
}

func main() {
	os.Exit(runWithArgs(os.Args[1:]))
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("dockerhost", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.host, "host", "", "Daemon endpoint, overrides DOCKER_HOST")
	fs.StringVar(&opts.certPath, "cert-path", "", "TLS client material, overrides DOCKER_CERT_PATH")
	fs.StringVar(&opts.port, "port", "", "Default port for endpoints without one, overrides DOCKER_PORT")
	fs.StringVar(&opts.format, "format", string(formatText), "Output format: text, json, yaml or env")
	fs.StringVar(&opts.serve, "serve", "", "Serve the resolved endpoint on this listen endpoint")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug mode")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	fs.BoolVar(&opts.showHelp, "help", false, "Show this help message")
	fs.BoolVar(&opts.showHelp, "h", false, "Show this help message")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !outputFormat(opts.format).valid() {
		return nil, errors.Errorf("unknown output format %q", opts.format)
	}
	return opts, nil
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintf(w, `Usage: dockerhost [options]

Resolves the Docker daemon endpoint from flags, a configuration file and the
DOCKER_HOST, DOCKER_CERT_PATH and DOCKER_PORT environment variables, in that
order of precedence.

Options:
  --config <path>      Configuration file (yaml, toml or json)
  --host <endpoint>    Daemon endpoint, e.g. tcp://10.0.0.2:2376 or unix:///var/run/docker.sock
  --cert-path <path>   TLS client material; switches the REST URI to https
  --port <port>        Default port for endpoints without one (default %d)
  --format <format>    Output format: text, json, yaml or env (default text)
  --serve <endpoint>   Publish the resolved endpoint over HTTP on this listen endpoint
  --debug              Enable debug logging
  --version            Show version information
  --help, -h           Show this help message

For more information, visit: https://github.com/animalet/dockerhost-go
`, endpoint.DefaultPort)
}

func setupLogging(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    false,
		TimeFormat: "2006-01-02 15:04:05",
	})
}

func runWithArgs(args []string) int {
	opts, err := parseFlags(args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage(os.Stderr)
		return exitError
	}

	if opts.showHelp {
		printUsage(os.Stdout)
		return exitSuccess
	}
	if opts.showVersion {
		fmt.Printf("dockerhost version %s\n", version)
		return exitSuccess
	}

	setupLogging(opts.debug)

	if err := run(opts, os.Stdout, os.LookupEnv); err != nil {
		log.Error().Err(err).Msg("dockerhost failed")
		return exitError
	}
	return exitSuccess
}

func run(opts *options, out io.Writer, lookup config.LookupFunc) error {
	settings, serverCfg, err := loadSettings(opts, lookup)
	if err != nil {
		return err
	}

	d, err := settings.Resolve(endpoint.CurrentPlatform())
	if err != nil {
		return errors.Wrap(err, "failed to resolve daemon endpoint")
	}
	log.Debug().
		Str("transport", string(d.Transport())).
		Str("uri", d.URI().String()).
		Bool("tls", d.TLS()).
		Msg("Daemon endpoint resolved")

	if err := write(out, d, outputFormat(opts.format)); err != nil {
		return err
	}

	if serverCfg == nil {
		return nil
	}
	srv, err := server.New(*serverCfg, d)
	if err != nil {
		return err
	}
	return srv.StartAndWaitForSignal()
}

// loadSettings layers the environment, the configuration file and the flags. The returned
// server configuration is nil unless -serve or a server module asks for one.
func loadSettings(opts *options, lookup config.LookupFunc) (config.Settings, *server.Config, error) {
	settings := config.FromEnvironment(lookup, config.DefaultEnvVars)

	var serverCfg *server.Config
	if opts.configPath != "" {
		cfg, err := config.NewConfig(opts.configPath)
		if err != nil {
			return config.Settings{}, nil, errors.Wrap(err, "failed to load configuration file")
		}
		if err := config.RegisterSecretSources(cfg); err != nil {
			return config.Settings{}, nil, err
		}

		fromFile, err := cfg.Settings()
		if err != nil {
			return config.Settings{}, nil, errors.Wrap(err, "failed to load docker configuration")
		}
		settings = settings.Merge(fromFile)

		if serverCfg, err = config.Get[server.Config](cfg, server.ServerModule); err != nil {
			return config.Settings{}, nil, errors.Wrap(err, "failed to load server configuration")
		}
	}

	settings = settings.Merge(config.Settings{
		Host:     opts.host,
		CertPath: opts.certPath,
		Port:     config.Port(opts.port),
	})

	if opts.serve != "" {
		if serverCfg == nil {
			serverCfg = &server.Config{}
		}
		serverCfg.Listen = opts.serve
		if opts.debug {
			serverCfg.Debug = true
		}
	}
	return settings, serverCfg, nil
}
