package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

var (
	searchLimit int
	searchKind  string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search mirrored topics and issues",
	Long: `Runs a keyword query against the local search index. Forum searches cover
topics and posts; tracker searches cover issues and comments.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchKind, "kind", "k", string(domain.KindForum), "index to search: forum or tracker")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	hits, err := rt.search.Search(cmd.Context(), domain.SourceKind(searchKind), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	outputSearchTable(cmd, hits)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.SearchHit) error {
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []domain.SearchHit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range hits {
		doc := &hits[i].Document

		// Format: [N] Title (Score)
		title := doc.Title
		if title == "" {
			title = doc.EntityID
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, hits[i].Score)

		where := fmt.Sprintf("%s #%d", doc.InstanceID, doc.SubjectID)
		if doc.Number > 0 {
			where += fmt.Sprintf(" post %d", doc.Number)
		}
		if doc.Author != "" {
			where += " by " + doc.Author
		}
		cmd.Printf("      %s\n", where)
		if snippet := snippetOf(doc.Body, 160); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
}

func snippetOf(body string, n int) string {
	r := []rune(body)
	if len(r) <= n {
		return body
	}
	return string(r[:n]) + "..."
}
