package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate the schema and align the role catalog",
	Long:  `Run the schema migrations and upsert the canonical supply-chain role catalog`,
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	deps, err := buildDependencies()
	if err != nil {
		return err
	}
	defer deps.close()

	if err := deps.catalogService.AlignCatalog(context.Background()); err != nil {
		return err
	}

	log.Info().Msg("Schema migrated and catalog aligned")
	return nil
}
