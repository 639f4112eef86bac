package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sleepstat/internal/config"
	"github.com/YuminosukeSato/sleepstat/pkg/log"
)

// app carries the state shared by subcommands.
type app struct {
	cfgFile string
	debug   bool
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "sleepstat",
		Short:         "Regression analysis of sleep quality and sleep disorders",
		Long:          `sleepstat fits nested OLS models of sleep quality and multinomial logit models of sleep disorders, then writes a text report and figures.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./"+config.DefaultFile+" when present)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(newRunCmd(a), newConfigCmd(a), newDemoCmd(a))
	return root
}

// load reads the configuration and installs the logger.
func (a *app) load(cmd *cobra.Command) error {
	c, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.debug {
		c.Log.Level = "debug"
	}
	a.cfg = c
	return log.Setup(c.Log.Level, c.Log.Format, cmd.ErrOrStderr())
}
