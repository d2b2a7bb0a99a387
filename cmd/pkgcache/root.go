package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/config"
	"github.com/fieldware/pkgcache/internal/exitcodes"
	ui "github.com/fieldware/pkgcache/internal/ui"
)

// Version information - set via -ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// rootCmd wires the CLI surface using Cobra. Persistent flags are
// applied to a loaded config in loadCfg(). Subcommands implement the
// actual operations (download, prune, wait, verify, etc.).
var rootCmd = &cobra.Command{
	Use:           "pkgcache",
	Short:         "Package update engine",
	Long:          "Download, verify, retain, and apply versioned update packages on managed devices.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set NO_COLOR env so lipgloss and other libraries respect the flag
		if flagNoColor {
			os.Setenv("NO_COLOR", "1")
		}
	},
}

var (
	flagHome    string
	flagOutput  string
	flagQuiet   bool
	flagNoColor bool
	flagNoEmoji bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "Engine home directory (overrides env)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "Output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet mode: minimal output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable ANSI colors")
	rootCmd.PersistentFlags().BoolVar(&flagNoEmoji, "no-emoji", false, "Disable emoji output")

	// Replace root help to present grouped, example-rich output.
	// Only apply custom help to the root command; subcommands use cobra's default help.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			fmt.Fprintln(os.Stdout, cmd.UsageString())
			return
		}
		// Help runs before PersistentPreRun, so manually configure colors
		c := ui.NewColorConfig()
		c.Enabled = c.Enabled && !flagNoColor
		c.EmojiEnabled = c.EmojiEnabled && !flagNoEmoji
		w := os.Stdout

		fmt.Fprintln(w, c.Header(" pkgcache "))
		fmt.Fprintln(w, c.Description("Download, verify, retain, and apply versioned update packages."))
		fmt.Fprintln(w, c.Separator(50))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("USAGE"))
		fmt.Fprintf(w, "  %s <command> [flags]\n", "pkgcache")
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Transfers"))
		fmt.Fprintln(w, c.FormatCommand("download <version>", "Fetch a package, resuming any partial file"))
		fmt.Fprintln(w, c.FormatCommand("verify <version>  ", "Re-verify a cached package against its manifest"))
		fmt.Fprintln(w, c.FormatCommand("extract <version> ", "Unpack a verified package into staging"))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Cache"))
		fmt.Fprintln(w, c.FormatCommand("list              ", "List cached package versions"))
		fmt.Fprintln(w, c.FormatCommand("prune             ", "Apply the retention policy to the cache"))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Readiness"))
		fmt.Fprintln(w, c.FormatCommand("status            ", "Show device, network, and cache state"))
		fmt.Fprintln(w, c.FormatCommand("wait              ", "Block until an apply window opens"))
		fmt.Fprintln(w, c.FormatCommand("watch             ", "Live terminal view of engine state"))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Feed"))
		fmt.Fprintln(w, c.FormatCommand("check             ", "Check the release feed for newer versions"))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Utilities"))
		fmt.Fprintln(w, c.FormatCommand("logs              ", "Show or follow the engine journal"))
		fmt.Fprintln(w, c.FormatCommand("version           ", "Show version"))
		fmt.Fprintln(w)
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// loadCfg reads defaults + env + config file via internal/config.Load()
// and then applies overrides from persistent flags.
func loadCfg() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, exitcodes.WrapError(exitcodes.ValidationError, "load config", err)
	}
	if flagHome != "" {
		cfg.HomeDir = flagHome
	}
	return cfg, nil
}
