package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixeljudge/pixeljudge/pkg/brand"
)

// brandsCommand creates the brands listing command.
func (c *CLI) brandsCommand() *cobra.Command {
	var profiles string

	cmd := &cobra.Command{
		Use:   "brands",
		Short: "List the registered brand profiles",
		Long: `Brands lists the builtin brand profiles plus any loaded from a TOML
profile file. Profile order matters: on equal identification scores the
earlier profile wins.`,
		Example: `  # List builtin profiles
  pixeljudge brands

  # Include custom profiles
  pixeljudge brands --profiles brands.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := brand.Builtin()
			if profiles != "" {
				loaded, err := brand.LoadRegistry(profiles)
				if err != nil {
					return err
				}
				registry = loaded
			}

			fmt.Println(StyleTitle.Render(fmt.Sprintf("Brand profiles (%d)", registry.Len())))
			printNewline()

			for _, p := range registry.Profiles() {
				printBrandProfile(p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profiles, "profiles", "", "TOML file with additional brand profiles")

	return cmd
}

// printBrandProfile renders one profile with its color swatches.
func printBrandProfile(p *brand.Profile) {
	fmt.Println(StyleValue.Render(p.Name))

	if line := swatchLine(p.Colors.Primary); line != "" {
		printDetail("primary    %s", line)
	}
	if line := swatchLine(p.Colors.Secondary); line != "" {
		printDetail("secondary  %s", line)
	}
	if line := swatchLine(p.Colors.Accent); line != "" {
		printDetail("accent     %s", line)
	}
	if len(p.Keywords) > 0 {
		printDetail("keywords   %s", strings.Join(p.Keywords, ", "))
	}
	if len(p.Patterns) > 0 {
		printDetail("patterns   %d", len(p.Patterns))
	}
	printNewline()
}

// swatchLine renders hex colors with terminal swatches.
func swatchLine(hexes []string) string {
	if len(hexes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hexes))
	for _, hex := range hexes {
		parts = append(parts, swatch(hex)+" "+hex)
	}
	return strings.Join(parts, "  ")
}
