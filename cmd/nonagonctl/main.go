// Command nonagonctl inspects identifiers and stored documents and manages
// guild lookup entries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "nonagonctl",
	Short: "Nonagon maintenance CLI",
	Long: `nonagonctl works with nonagon identifiers, stored documents and lookup entries.

Examples:
  # Generate three quest identifiers (not checked against storage)
  nonagonctl id generate --kind quest --count 3

  # Parse user input leniently
  nonagonctl id parse --kind character --loose " char a1b2c3 "

  # Decode a stored quest document, validate it and print the canonical form
  nonagonctl doc decode --kind quest quest.yaml

  # Find the best lookup entry for a query
  nonagonctl lookup find --guild 1234 "player guide"`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "yaml", "Output format: yaml|text")

	rootCmd.AddCommand(idCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(lookupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// printValue writes v as YAML, or with fmt when --format=text.
func printValue(cmd *cobra.Command, v any) error {
	out := cmd.OutOrStdout()
	switch outputFormat {
	case "text":
		_, err := fmt.Fprintln(out, v)
		return err
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want yaml or text)", outputFormat)
	}
}
