package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cinevault/cinevault/internal/model"
)

// seedMovie is the YAML shape of one catalog entry in a seed file.
type seedMovie struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Genre       string `yaml:"genre"`
	Language    string `yaml:"language"`
	Director    string `yaml:"director"`
	Cast        string `yaml:"cast"`
	ReleaseYear int    `yaml:"release_year"`
	PosterURL   string `yaml:"poster_url"`
}

type seedFile struct {
	Movies []seedMovie `yaml:"movies"`
}

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load movies into the catalog from a YAML file",
		Long:  "Load a YAML file of movies into the catalog. Seeded movies are approved immediately.",
		Example: `  cinevault seed --file movies.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file of movies to load (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	if len(seed.Movies) == 0 {
		return fmt.Errorf("seed file contains no movies")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var created int
	for _, m := range seed.Movies {
		if m.Title == "" {
			fmt.Fprintln(os.Stderr, "skipping movie with no title")
			continue
		}
		movie := &model.Movie{
			Title:       m.Title,
			Description: m.Description,
			Genre:       m.Genre,
			Language:    m.Language,
			Director:    m.Director,
			Cast:        m.Cast,
			ReleaseYear: m.ReleaseYear,
			PosterURL:   m.PosterURL,
			Approved:    true,
		}
		if err := st.CreateMovie(cmd.Context(), movie); err != nil {
			return fmt.Errorf("seed movie %q: %w", m.Title, err)
		}
		created++
	}

	fmt.Printf("Seeded %d movies\n", created)
	return nil
}
