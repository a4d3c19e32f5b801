package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kalah/config"
)

// kalah config
func Config() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the effective configuration",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`config prints the configuration the other commands use:
			the built-in defaults overlaid with the file given by --config.

			A missing file falls back to the defaults. With --write the
			result is stored at the --config path.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if errors.Is(err, fs.ErrNotExist) {
				c, err = config.Default(), nil
			}
			if err != nil {
				return err
			}

			if write, _ := cmd.Flags().GetBool("write"); write {
				path, _ := cmd.Flags().GetString("config")
				if err := config.Write(path, c); err != nil {
					return err
				}
				log.Info().Msgf("configuration written to %s", path)
				return nil
			}

			data, err := yaml.Marshal(c)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolP("write", "w", false, "Write the configuration to the --config path")

	return cmd
}
