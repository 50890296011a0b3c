package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/skiffsh/skiff/core/config"
	"github.com/skiffsh/skiff/core/logger"
	"github.com/skiffsh/skiff/core/ttylog"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var idleTimeLimit time.Duration

var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Explore the event log and session recordings.",
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Summarize the event log.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fd, err := cfg.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		var report logger.Report
		if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var bugsCommand = &cobra.Command{
	Use:   "bugs",
	Short: "Show events that point at problems in skiff itself.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fd, err := cfg.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		report := logger.NewBugReport()
		if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var sessionsCommand = &cobra.Command{
	Use:   "sessions",
	Short: "Summarize the event log per session.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fd, err := cfg.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		var report logger.InteractionReport
		if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(&report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var recordingsCommand = &cobra.Command{
	Use:   "recordings",
	Short: "List session recordings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		names, err := cfg.ListRecordings()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

// playCommand represents the play command
var playCommand = &cobra.Command{
	Use:   "play RECORDING",
	Short: "Replay a recorded session in the terminal.",
	Long:  `Plays a recorded interactive session back to the current terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fd, err := openRecording(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		sink = ttylog.NewRealTimePlayback(idleTimeLimit, sink)
		return ttylog.Replay(ttylog.NewAsciicastLogSource(fd), sink)
	},
}

// catCommand represents the cat command
var catCommand = &cobra.Command{
	Use:   "cat RECORDING",
	Short: "Print a recorded session's full output.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fd, err := openRecording(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		return ttylog.Replay(ttylog.NewAsciicastLogSource(fd), ttylog.NewClientOutput(cmd.OutOrStdout()))
	},
}

// openRecording resolves a name inside the configured recordings
// directory first, then falls back to a plain path so files copied
// elsewhere still play.
func openRecording(name string) (io.ReadCloser, error) {
	if cfg, err := config.Load(cfgPath); err == nil {
		if fd, err := cfg.OpenRecording(name); err == nil {
			return fd, nil
		}
	}
	return os.Open(name)
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(reportCommand)
	logsCmd.AddCommand(bugsCommand)
	logsCmd.AddCommand(sessionsCommand)
	logsCmd.AddCommand(recordingsCommand)
	logsCmd.AddCommand(playCommand)
	logsCmd.AddCommand(catCommand)

	// cat doesn't allow idle time
	playCommand.Flags().DurationVarP(&idleTimeLimit, "idle-time-limit", "i", 3*time.Second, "Maximum time output can be idle. (e.g. 3s, 2m, 100ms)")
}
