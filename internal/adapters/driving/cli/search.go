package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

var (
	searchType string
	searchTopK int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the vector index",
	Long: `Embeds the query text and returns the most similar indexed chunks.
Useful for verifying what a sync actually indexed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchType, "type", "", "restrict results to one object type")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 5, "number of results to return")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}

	query := strings.Join(args, " ")
	vector, err := embedder.Embed(cmd.Context(), query)
	if err != nil {
		return err
	}

	var filter map[string]string
	if searchType != "" {
		filter = map[string]string{domain.MetaSourceType: searchType}
	}

	hits, err := vectorIndex.Query(cmd.Context(), vector, filter, searchTopK)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		cmd.Println("No results.")
		return nil
	}

	for i, hit := range hits {
		title, _ := hit.Metadata[domain.MetaTitle].(string)
		source, _ := hit.Metadata[domain.MetaSource].(string)
		cmd.Printf("%d. [%.3f] %s (%s)\n", i+1, hit.Score, title, source)
		cmd.Printf("   %s\n", snippet(hit.Text, 160))
	}
	return nil
}

// snippet returns the first n characters of text on a single line.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > n {
		text = text[:n] + "..."
	}
	return text
}
