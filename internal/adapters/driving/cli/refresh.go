package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

var (
	refreshAddr       string
	refreshPostNumber int
)

// refreshClient sends refresh requests to a running daemon.
var refreshClient = &http.Client{Timeout: 10 * time.Second}

var refreshCmd = &cobra.Command{
	Use:   "refresh <instance> <subject> [page]",
	Short: "Ask a running daemon to re-index a topic or issue",
	Long: `Queues a subject page on a running "sercha-mirror serve" process and returns
once the request is accepted. If the same page is already queued the request
is coalesced.

Examples:
  sercha-mirror refresh magicians 12345
  sercha-mirror refresh magicians 12345 3
  sercha-mirror refresh magicians 12345 --post-number 61
  sercha-mirror refresh ethereum/pm 1200`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().StringVar(&refreshAddr, "addr", "", "daemon admin URL (default from [http] listen)")
	refreshCmd.Flags().IntVar(&refreshPostNumber, "post-number", 0, "refresh the page containing this post number")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	instanceID := args[0]
	subjectID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || subjectID <= 0 {
		return fmt.Errorf("%w: subject must be a positive integer", domain.ErrInvalidInput)
	}

	query := url.Values{}
	switch {
	case refreshPostNumber > 0:
		query.Set("post_number", strconv.Itoa(refreshPostNumber))
	case len(args) == 3:
		page, err := strconv.Atoi(args[2])
		if err != nil || page < domain.FirstPage {
			return fmt.Errorf("%w: page must be a positive integer", domain.ErrInvalidInput)
		}
		query.Set("page", strconv.Itoa(page))
	}

	base := refreshAddr
	if base == "" {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		base = adminURL(settings.HTTPAddr)
	}

	endpoint := fmt.Sprintf("%s/v1/refresh/%s/%d", strings.TrimSuffix(base, "/"), instanceID, subjectID)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := refreshClient.Do(req)
	if err != nil {
		return fmt.Errorf("contacting daemon: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode != http.StatusAccepted {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("refresh rejected (%d): %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("refresh rejected (%d)", resp.StatusCode)
	}

	var accepted struct {
		Page int `json:"page"`
	}
	_ = json.Unmarshal(body, &accepted)
	cmd.Printf("Queued %s/%d page %d\n", instanceID, subjectID, accepted.Page)
	return nil
}

// adminURL turns a listen address into a URL a local client can reach.
func adminURL(listen string) string {
	if strings.HasPrefix(listen, "http://") || strings.HasPrefix(listen, "https://") {
		return listen
	}
	if strings.HasPrefix(listen, ":") {
		return "http://localhost" + listen
	}
	return "http://" + listen
}
