package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brightmath/brightmath/internal/seed"
	"github.com/brightmath/brightmath/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the curriculum into the database",
	Long: "Load a skill and question catalog into the database, replacing any existing catalog.\n" +
		"Without flags the embedded default curriculum is used.",
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().String("skills", "", "Path to a skills JSON file (default: embedded curriculum)")
	seedCmd.Flags().String("questions", "", "Path to a questions JSON file (default: embedded curriculum)")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	skillsPath, _ := cmd.Flags().GetString("skills")
	questionsPath, _ := cmd.Flags().GetString("questions")
	if (skillsPath == "") != (questionsPath == "") {
		return fmt.Errorf("--skills and --questions must be given together")
	}

	var (
		catalog *seed.Catalog
		err     error
	)
	if skillsPath != "" {
		skillsRaw, err := os.ReadFile(skillsPath)
		if err != nil {
			return fmt.Errorf("read skills file: %w", err)
		}
		questionsRaw, err := os.ReadFile(questionsPath)
		if err != nil {
			return fmt.Errorf("read questions file: %w", err)
		}
		catalog, err = seed.Parse(skillsRaw, questionsRaw)
		if err != nil {
			return fmt.Errorf("parse catalog: %w", err)
		}
	} else {
		catalog, err = seed.Default()
		if err != nil {
			return fmt.Errorf("load embedded seed: %w", err)
		}
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := catalog.Apply(cmd.Context(), st); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}

	fmt.Printf("Seeded %d skills and %d questions into %s\n",
		len(catalog.Skills), len(catalog.Questions), dbPath)
	return nil
}
