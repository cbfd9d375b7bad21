package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/patentwatch/internal/config"
	"github.com/matsen/patentwatch/internal/ipsearch"
	"github.com/matsen/patentwatch/internal/storage"
)

var searchFilingDate string

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchFilingDate, "filing-date", "", "Filing date DD/MM/YYYY (default: taken from the stored record)")
}

var searchCmd = &cobra.Command{
	Use:   "search <application_no>",
	Short: "Fetch an application's status and documents pages",
	Long: `Look an application up on the public search site and save its status
and documents pages to the output directory.

The site requires a CAPTCHA. The image is saved as captcha.jpg in the output
directory; open it and type the characters when prompted. If the site
returns an unexpected page, it is saved as error.html.

Example:
  pw search 202511087359
  pw search 202511087359 --filing-date 15/09/2025`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// SearchResult is the response for the search command.
type SearchResult struct {
	ApplicationNo string `json:"application_no"`
	Title         string `json:"title,omitempty"`
	StatusPage    string `json:"status_page"`
	DocumentsPage string `json:"documents_page"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg).WithField("component", "search")
	db := mustOpenDatabase(cfg)
	defer db.Close()

	ctx := cmd.Context()
	query := ipsearch.Query{ApplicationNo: args[0], FilingDate: searchFilingDate}
	var title string
	rec, err := db.GetPatent(ctx, args[0])
	switch {
	case err == nil:
		title = rec.Title
		if query.FilingDate == "" {
			query.FilingDate = rec.DateOfFiling
		}
	case errors.Is(err, storage.ErrPatentNotFound) && searchFilingDate != "":
		// Not extracted locally; the flag supplies what the form needs.
	case errors.Is(err, storage.ErrPatentNotFound):
		exitWithError(ExitDataError, "application %s not found; pass --filing-date to search anyway", args[0])
	default:
		exitWithError(ExitError, "looking up application: %v", err)
	}

	client, err := newSearchClient(cfg)
	if err != nil {
		exitWithError(ExitConfigError, "creating search client: %v", err)
	}

	challenge, err := client.Start(ctx, query)
	if err != nil {
		exitWithSearchError(cfg, err)
	}
	captchaPath := cfg.OutputFile(config.CaptchaFile)
	if err := writeOutput(captchaPath, challenge.Image); err != nil {
		exitWithError(ExitError, "saving CAPTCHA: %v", err)
	}
	log.WithField("path", captchaPath).Debug("captcha saved")

	fmt.Fprintf(os.Stderr, "CAPTCHA saved to %s\nEnter the characters shown: ", captchaPath)
	answer, err := readLine(os.Stdin)
	if err != nil {
		exitWithError(ExitError, "reading CAPTCHA answer: %v", err)
	}

	bundle, err := challenge.Submit(ctx, answer)
	if err != nil {
		exitWithSearchError(cfg, err)
	}

	result := SearchResult{
		ApplicationNo: bundle.ApplicationNumber,
		Title:         title,
		StatusPage:    cfg.OutputFile(config.StatusPageFile),
		DocumentsPage: cfg.OutputFile(config.DocumentsFile),
	}
	if err := writeOutput(result.StatusPage, bundle.StatusPage); err != nil {
		exitWithError(ExitError, "saving status page: %v", err)
	}
	if err := writeOutput(result.DocumentsPage, bundle.DocumentsPage); err != nil {
		exitWithError(ExitError, "saving documents page: %v", err)
	}

	if humanOutput {
		outputHuman("%s  %s\n", result.ApplicationNo, truncateString(title, DetailTitleMaxLen))
		outputHuman("  status:    %s\n  documents: %s\n", result.StatusPage, result.DocumentsPage)
		return nil
	}
	return outputJSON(result)
}

func newSearchClient(cfg config.Config) (*ipsearch.Client, error) {
	sc := cfg.Search
	opts := []ipsearch.ClientOption{
		ipsearch.WithUserAgent(sc.UserAgent),
		ipsearch.WithRateLimit(sc.RequestsPerSec),
		ipsearch.WithTimeout(sc.Timeout),
	}
	if sc.InsecureTLS {
		opts = append(opts, ipsearch.WithInsecureTLS())
	}
	return ipsearch.NewClient(sc.BaseURL, opts...)
}

// exitWithSearchError saves the page behind a replay failure, then exits.
func exitWithSearchError(cfg config.Config, err error) {
	var pageErr *ipsearch.PageError
	if errors.As(err, &pageErr) && len(pageErr.Page) > 0 {
		path := cfg.OutputFile(config.ErrorPageFile)
		if werr := writeOutput(path, pageErr.Page); werr == nil {
			err = fmt.Errorf("%w (page saved to %s)", err, path)
		}
	}

	switch {
	case errors.Is(err, ipsearch.ErrInvalidCaptcha):
		exitWithError(ExitDataError, "CAPTCHA rejected, run the search again")
	case errors.Is(err, ipsearch.ErrNoResult), errors.Is(err, ipsearch.ErrUnexpectedPage):
		exitWithError(ExitDataError, "search failed: %v", err)
	default:
		exitWithError(ExitError, "search failed: %v", err)
	}
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
