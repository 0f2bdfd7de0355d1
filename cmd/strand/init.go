package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/strand-ui/strand/internal/config"
)

func initCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a strand.json in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(".", config.FileName)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", config.FileName)
			}

			cfg := config.New()
			cfg.Name = name
			if cfg.Name == "" {
				if wd, err := os.Getwd(); err == nil {
					cfg.Name = filepath.Base(wd)
				}
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}

			success("Created %s", config.FileName)
			info("Edit it, then run 'strand serve' to start the dev server")
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (defaults to directory name)")

	return cmd
}
