package main

import (
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/omnibus/pkg/omnibus/config"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	out      io.Writer
	errOut   io.Writer
	settings config.Settings
}

// syncWriter serializes writes from the calling goroutine and from task
// notifications delivered on timer goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: &syncWriter{w: out}, errOut: errOut}

	var (
		cfgFile string
		noColor bool
	)

	root := &cobra.Command{
		Use:          "omnibus",
		Short:        "Event channel and concurrency policy playground",
		Long:         "omnibus runs small scenarios on an event channel so the concurrency policies and the service protocol can be watched as they happen.",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if noColor {
				color.NoColor = true
			}
			cfg := config.New(nil)
			if cfgFile != "" {
				loaded, err := config.FromFile(cfgFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			settings, err := cfg.Settings()
			if err != nil {
				return err
			}
			a.settings = settings
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML or JSON settings file")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newPoliciesCommand(a))
	root.AddCommand(newCounterCommand(a))
	return root
}
