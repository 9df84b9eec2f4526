package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gastrolima/sentimiento"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// ErrRejected is returned by the train command when the new model fails the
// quality gate. The report has already been printed.
var ErrRejected = errors.New("model rejected by quality gate")

// app carries the state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	log     *logrus.Logger
	cfg     Config
	models  *sentimiento.ModelCache
}

// NewRootCommand builds the sentimiento command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New(), log: logrus.New()}
	a.models = sentimiento.NewModelCache(sentimiento.WithCacheLogger(a.log))

	root := &cobra.Command{
		Use:   "sentimiento",
		Short: "Sentiment analysis for Spanish restaurant reviews",
		Long: `sentimiento classifies restaurant reviews written in Spanish as positivo,
neutro or negativo, with a confidence score and a reliability tier.

Models are trained from a labelled CSV corpus. A new model only replaces the
stored one when it passes the quality gate (held-out accuracy and a set of
hand-picked sanity checks).`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./sentimiento.yaml or $HOME/.sentimiento/sentimiento.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().String("model", "", "model file")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "log format (text, json)")

	_ = a.v.BindPFlag("model_path", root.PersistentFlags().Lookup("model"))
	_ = a.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("log_format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(
		newTrainCommand(a),
		newPredictCommand(a),
		newInfoCommand(a),
		newNormalizeCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

// initConfig reads in config file and ENV variables
func (a *app) initConfig(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.SetConfigName("sentimiento")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home + "/.sentimiento")
		}
	}

	// Read in environment variables that match SENTIMIENTO_*
	a.v.SetEnvPrefix("SENTIMIENTO")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := loadConfig(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.setupLogger(cmd.ErrOrStderr()); err != nil {
		return err
	}
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.WithField("path", used).Debug("using config file")
	}
	return nil
}

func (a *app) setupLogger(w io.Writer) error {
	a.log.SetOutput(w)

	level := a.cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.log.SetLevel(lvl)

	switch a.cfg.LogFormat {
	case "json":
		a.log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("log format %q: want text or json", a.cfg.LogFormat)
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sentimiento %s\n", Version)
		},
	}
}
