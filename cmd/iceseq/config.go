package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ampac/iceseq/pkg/config"
)

func NewConfigCommand() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:     "config",
		GroupID: gInfo,
		Short:   "Print the effective station configuration",
		Long: `Print the effective station configuration: the station file merged over
the defaults. With --write, the result is saved to the station file, which is
a convenient way to create one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			station, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			if write {
				if err := station.Save(); err != nil {
					return err
				}
				logrus.Infof("station written to %s", station.Path())
				return nil
			}

			b, err := yaml.Marshal(station.Station)
			if err != nil {
				return err
			}
			cmd.Print(string(b))
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "write the effective configuration to the station file")

	return cmd
}
