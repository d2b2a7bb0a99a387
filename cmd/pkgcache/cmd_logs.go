package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/exitcodes"
	"github.com/fieldware/pkgcache/internal/journal"
)

func init() {
	var flagFollow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show or follow the engine journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}

			path := d.Journal.Path()
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					if flagFollow {
						return exitcodes.PreconditionErrorf("journal %s does not exist yet", path)
					}
					if !flagQuiet {
						d.Printer.Info("journal is empty")
					}
					return nil
				}
				return exitcodes.WrapError(exitcodes.IOError, "read journal", err)
			}
			fmt.Print(string(data))

			if !flagFollow {
				return nil
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			lines, err := journal.Follow(ctx, path)
			if err != nil {
				return exitcodes.WrapError(exitcodes.IOError, "follow journal", err)
			}
			for line := range lines {
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flagFollow, "follow", "f", false, "Keep streaming new journal lines")
	rootCmd.AddCommand(cmd)
}
