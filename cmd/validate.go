// =============================================================================
// Order Reconciler - Validate Command
// =============================================================================
//
// Checks config.yaml and every supplier layout without opening a workbook.
//
// COMMAND USAGE:
//   reconciler validate                 # all suppliers
//   reconciler validate acme globex     # only these
//   reconciler validate --print-default # print the built-in layout as YAML
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/config"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

var printDefault bool

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate [supplier...]",
	Short: "Validate the configuration and supplier layouts",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if printDefault {
			data, err := config.DefaultSupplier().Marshal()
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}

		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()
		fmt.Fprintf(out, "Configuration OK (suppliers from %s)\n", s.config.SupplierSource)

		names := args
		if len(names) == 0 {
			if names, err = s.store.List(cmd.Context()); err != nil {
				return err
			}
		}
		if len(names) == 0 {
			fmt.Fprintln(out, "No suppliers configured; the built-in default layout will be used.")
			return nil
		}

		failed := 0
		for _, name := range names {
			supplier, err := s.store.Get(cmd.Context(), name)
			if err != nil {
				failed++
				fmt.Fprintf(out, "  ✗ %s: %v\n", name, err)
				continue
			}
			set, err := supplier.Layouts()
			if err != nil {
				failed++
				fmt.Fprintf(out, "  ✗ %s: %v\n", name, err)
				continue
			}

			result := layout.ValidateSet(set)
			if !result.IsValid() {
				failed++
				fmt.Fprintf(out, "  ✗ %s\n%s", name, layout.FormatErrors(result.Errors))
			} else {
				fmt.Fprintf(out, "  ✓ %s\n", name)
			}
			if len(result.Warnings) > 0 {
				fmt.Fprint(out, layout.FormatErrors(result.Warnings))
			}
		}

		if failed > 0 {
			return types.ConfigurationError("validate", "%d of %d supplier(s) have invalid layouts", failed, len(names))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&printDefault, "print-default", false, "Print the built-in supplier layout as YAML and exit")
}
