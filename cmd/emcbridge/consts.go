package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/symbrkrs/emcbridge/internal/config"
	"github.com/symbrkrs/emcbridge/internal/consts"
)

var constsCmd = &cobra.Command{
	Use:   "consts",
	Short: "Inspect firmware constants and chip presets",
	Long: `Inspect the exploit constants the bridge starts with.

These are the embedded catalog plus any firmwares added in the
configuration file.`,
}

var constsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known firmware versions and chip presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		return printConsts(os.Stdout, reg)
	},
}

var constsShowCmd = &cobra.Command{
	Use:   "show <version>",
	Short: "Show the constants for one firmware version",
	Long: `Show the buffer address and shellcode for a firmware version.

The version may be given with dots in place of spaces, as picofwconst
accepts it.`,
	Example: `  emcbridge consts show E1E.0001.0000.0004.13D0`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		v := consts.NormalizeVersion(args[0])
		fc, ok := reg.Lookup(v)
		if !ok {
			return reg.Unsupported(v)
		}
		fmt.Printf("Firmware %s\n%s\n", v, fc.Describe())
		return nil
	},
}

func init() {
	constsCmd.AddCommand(constsListCmd)
	constsCmd.AddCommand(constsShowCmd)
	rootCmd.AddCommand(constsCmd)
}

// loadRegistry returns the catalog with the configuration file applied.
func loadRegistry() (*consts.Registry, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	reg, err := consts.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load firmware catalog: %w", err)
	}
	if err := cfg.ApplyFirmwares(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func printConsts(w io.Writer, reg *consts.Registry) error {
	cat, err := consts.LoadCatalog()
	if err != nil {
		return err
	}
	names := make(map[string]string, len(cat.Firmwares))
	for _, fw := range cat.Firmwares {
		names[fw.Version] = fw.String()
	}

	versions := reg.Versions()
	fmt.Fprintf(w, "Firmware versions (%d):\n", len(versions))
	for _, v := range versions {
		fc, _ := reg.Lookup(v)
		label, ok := names[v]
		if !ok {
			label = v + " [config]"
		}
		fmt.Fprintf(w, "  %-40s buf 0x%08x, %d byte shellcode\n", label, fc.UcmdBufAddr, len(fc.Shellcode))
	}

	fmt.Fprintf(w, "\nChip presets:\n")
	for _, name := range reg.ChipPresets() {
		cc, _ := reg.ChipPreset(name)
		marker := " "
		if name == cat.DefaultChip {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %-12s %s\n", marker, name, cc)
	}
	return nil
}
