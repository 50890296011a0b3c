package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/skiffsh/skiff/core/complete"
	"github.com/skiffsh/skiff/core/config"
	"github.com/skiffsh/skiff/core/history"
	"github.com/skiffsh/skiff/core/logger"
	"github.com/skiffsh/skiff/core/session"
	"github.com/skiffsh/skiff/core/shell"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	oneShot      string
	eventLogPath string
)

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// loadConfigOrDefault falls back to the embedded defaults so the local
// shell works without an initialized config directory.
func loadConfigOrDefault() *config.Configuration {
	configuration, err := config.Load(cfgPath)
	if err != nil {
		return config.Default()
	}
	return configuration
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skiff",
	Short: "A small POSIX-style shell.",
	Long: `skiff is an interactive POSIX-style shell. Run it bare for a local
session, with -c to execute a single command line, or use the serve
subcommand to offer sessions over SSH.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg := loadConfigOrDefault()

		var events *logger.SessionLogger
		if eventLogPath != "" {
			fd, err := os.OpenFile(eventLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				return err
			}
			defer fd.Close()
			events = logger.NewJsonLinesLogRecorder(fd).NewSession()
		}

		sess := newLocalSession()

		if oneShot != "" {
			executor := shell.NewExecutor(sess, history.New(sess.FS))
			executor.Aliases = cfg.Aliases
			executor.Events = events
			os.Exit(shell.RunLine(executor, oneShot))
		}

		opts := shell.Options{
			Prompt:   cfg.Prompt,
			HistFile: cfg.HistoryFile,
			Aliases:  cfg.Aliases,
			Events:   events,
		}
		opts.AutoComplete = complete.New(sess, shell.BuiltinNames())

		sh, err := shell.NewShell(sess, opts)
		if err != nil {
			return err
		}
		code := sh.Run()
		sh.Close()
		os.Exit(code)
		return nil
	},
}

// newLocalSession wires a session to the process's own environment,
// working directory, and standard streams.
func newLocalSession() *session.Session {
	wd, err := os.Getwd()
	if err != nil {
		wd = "/"
	}
	return session.New(session.Options{
		Environ: os.Environ(),
		Dir:     wd,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.Flags().StringVarP(&oneShot, "command", "c", "", "run a single command line and exit with its status")
	rootCmd.Flags().StringVar(&eventLogPath, "log", "", "append shell events to this JSON lines file")
}
