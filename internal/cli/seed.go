package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/itemstore/internal/seed"
	"github.com/mesh-intelligence/itemstore/pkg/types"
)

func newSeedCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Work with seed files",
	}
	cmd.AddCommand(newSeedCheckCmd(flags))
	return cmd
}

func newSeedCheckCmd(flags *rootFlags) *cobra.Command {
	var withDefaults bool

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a JSONL seed file without starting the server",
		Long: "Read a JSONL seed file the way serve would and report how many items it\n" +
			"holds. Malformed lines are reported and skipped; invalid items and\n" +
			"duplicate IDs are errors.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("with-defaults") {
				withDefaults = flags.cfg.Store.SeedDefaults
			}
			items, skipped, err := seed.Collect(types.Config{
				SeedDefaults: withDefaults,
				SeedFile:     args[0],
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fromFile := len(items)
			if withDefaults {
				fromFile -= len(seed.Defaults())
			}
			fmt.Fprintf(out, "%s: %d items, %d malformed lines skipped\n", args[0], fromFile, skipped)
			next, err := types.NextID(items)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "next id: %d\n", next)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withDefaults, "with-defaults", false,
		"check against the built-in demo items (default: store.seed_defaults)")
	return cmd
}
