package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search imported files by meaning",
	Long: `Performs semantic search across ingested files.
The query is embedded and compared with the chunks of every saved file,
so an embedding provider must be configured.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResult is the JSON form of a hit.
type searchResult struct {
	Path       string  `json:"path"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Position   int     `json:"position"`
	Similarity float64 `json:"similarity"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	hits, err := searchService.Search(commandContext(cmd), query, searchLimit)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return fmt.Errorf("%w: run 'filer settings embedding' first", err)
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.SearchHit) error {
	results := make([]searchResult, 0, len(hits))
	for i := range hits {
		r := searchResult{
			Content:    hits[i].Chunk.Content,
			Position:   hits[i].Chunk.Position,
			Similarity: hits[i].Similarity,
		}
		if doc := hits[i].Document; doc != nil {
			r.Path = doc.URI
			r.Title = doc.Title
		}
		results = append(results, r)
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []domain.SearchHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range hits {
		title := hits[i].Chunk.DocumentID
		path := ""
		if doc := hits[i].Document; doc != nil {
			if doc.Title != "" {
				title = doc.Title
			}
			path = doc.URI
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, hits[i].Similarity)
		if path != "" {
			cmd.Printf("      Path: %s\n", path)
		}
		if snippet := snippet(hits[i].Chunk.Content, 160); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

// snippet collapses whitespace and truncates to maxRunes.
func snippet(content string, maxRunes int) string {
	s := strings.Join(strings.Fields(content), " ")
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
