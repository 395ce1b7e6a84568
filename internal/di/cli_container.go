package di

import (
	"flag"
	"fmt"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/logging"
)

// Input types accepted by the CLI
const (
	TypeURL     = "url"
	TypeEmail   = "email"
	TypeMessage = "message"
	TypePhone   = "phone"
	TypeAPK     = "apk"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// What to screen
	Type   string
	Input  string
	Sender string
	File   string
	Report bool

	// Analysis flags
	Offline  bool
	Model    string
	Backend  string
	MaxLinks int

	// Output flags
	JSON       bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags(args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet("fraud-check", flag.ContinueOnError)

	fs.StringVar(&flags.Type, "type", TypeURL, "Input type (url, email, message, phone, apk)")
	fs.StringVar(&flags.Input, "input", "", "URL, phone number or email text to screen")
	fs.StringVar(&flags.Sender, "sender", "", "Sender address for email screening")
	fs.StringVar(&flags.File, "file", "", "Input file (APK, raw message or email text; stdin if not specified)")
	fs.BoolVar(&flags.Report, "report", false, "Report the URL or phone number as confirmed fraud instead of screening it")

	fs.BoolVar(&flags.Offline, "offline", false, "Skip WHOIS and HTTP lookups")
	fs.StringVar(&flags.Model, "model", "", "Path to the phishing model (overrides config)")
	fs.StringVar(&flags.Backend, "backend", "", "URL classifier backend (forest, remote, openai, bedrock, gemini)")
	fs.IntVar(&flags.MaxLinks, "max-links", 5, "Maximum links to check in a message")

	fs.BoolVar(&flags.JSON, "json", false, "Print results as JSON")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := flags.Validate(); err != nil {
		return nil, err
	}
	return flags, nil
}

// Validate checks that the flag combination can be acted on
func (f *CLIFlags) Validate() error {
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	switch f.Type {
	case TypeURL, TypePhone:
		if f.Input == "" {
			return fmt.Errorf("-input is required for type %s", f.Type)
		}
	case TypeEmail, TypeMessage:
		if f.Report {
			return fmt.Errorf("-report is only supported for url and phone")
		}
	case TypeAPK:
		if f.File == "" {
			return fmt.Errorf("-file is required for type apk")
		}
		if f.Report {
			return fmt.Errorf("-report is only supported for url and phone")
		}
	default:
		return fmt.Errorf("unsupported input type: %s", f.Type)
	}
	return nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := loadCLIConfig(flags)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideServices(container); err != nil {
		return nil, err
	}
	return container, nil
}

// loadCLIConfig reads the config file when one is given and applies the flag
// overrides on top
func loadCLIConfig(flags *CLIFlags) (*config.Config, error) {
	var cfg *config.Config
	if flags.ConfigFile != "" {
		var err error
		cfg, err = config.NewWithFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.NewFromViper(config.NewEmptyViper())
	}

	// Set some cli specific settings
	cfg.Set("server.filter_type", "cli")
	cfg.Set("cli.verbose", flags.Verbose)
	cfg.Set("server.check_links", flags.MaxLinks > 0)
	cfg.Set("server.max_links", flags.MaxLinks)

	if flags.Offline {
		cfg.Set("url.network.enabled", false)
	}
	if flags.Model != "" {
		cfg.Set("url.classifier.model_path", flags.Model)
	}
	if flags.Backend != "" {
		cfg.Set("url.classifier.backend", flags.Backend)
	}
	return cfg, nil
}
