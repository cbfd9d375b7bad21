// Package config handles pipeline configuration and data paths.
package config

import (
	"path/filepath"
	"time"

	"github.com/matsen/patentwatch/internal/classify"
)

// Config holds every setting the pipeline components need.
// It is built once per invocation and passed to constructors explicitly.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`

	Journal JournalConfig `yaml:"journal"`
	Search  SearchConfig  `yaml:"search"`

	// SoftwarePrefixes are the classification code prefixes that mark a
	// code as software-indicating.
	SoftwarePrefixes []string `yaml:"software_prefixes"`
}

// JournalConfig describes the journal listing site.
type JournalConfig struct {
	ListingURL     string        `yaml:"listing_url"`
	ViewURL        string        `yaml:"view_url"`
	BaselineSerial string        `yaml:"baseline_serial"` // Oldest serial still considered, e.g. "44/2025"
	UserAgent      string        `yaml:"user_agent"`
	RequestsPerSec float64       `yaml:"requests_per_sec"`
	ListingTimeout time.Duration `yaml:"listing_timeout"`
	// DownloadTimeout bounds a single artifact download; journal parts run
	// to hundreds of megabytes.
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// SearchConfig describes the public application search site.
type SearchConfig struct {
	BaseURL        string        `yaml:"base_url"`
	UserAgent      string        `yaml:"user_agent"`
	RequestsPerSec float64       `yaml:"requests_per_sec"`
	Timeout        time.Duration `yaml:"timeout"`
	// InsecureTLS skips certificate verification; the search host has
	// served incomplete chains.
	InsecureTLS bool `yaml:"insecure_tls"`
}

const (
	DBFile         = "patents.db"
	RawPDFDir      = "raw_pdfs"
	OutputDir      = "output"
	CaptchaFile    = "captcha.jpg"
	StatusPageFile = "application_status.html"
	DocumentsFile  = "view_documents.html"
	ErrorPageFile  = "error.html"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:  "data",
		LogLevel: "info",
		Journal: JournalConfig{
			ListingURL:      "https://search.ipindia.gov.in/IPOJournal/Journal/Patent",
			ViewURL:         "https://search.ipindia.gov.in/IPOJournal/Journal/ViewJournal",
			BaselineSerial:  "44/2025",
			UserAgent:       "Mozilla/5.0",
			RequestsPerSec:  1,
			ListingTimeout:  30 * time.Second,
			DownloadTimeout: 5 * time.Minute,
		},
		Search: SearchConfig{
			BaseURL:        "https://iprsearch.ipindia.gov.in/PublicSearch/",
			UserAgent:      browserUserAgent,
			RequestsPerSec: 1,
			Timeout:        60 * time.Second,
			InsecureTLS:    true,
		},
		SoftwarePrefixes: append([]string(nil), classify.DefaultPrefixes...),
	}
}

// DBPath returns the path to the SQLite database.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, DBFile)
}

// RawPDFPath returns the directory holding downloaded journal parts.
func (c Config) RawPDFPath() string {
	return filepath.Join(c.DataDir, RawPDFDir)
}

// OutputPath returns the directory for exports, CAPTCHA images and saved pages.
func (c Config) OutputPath() string {
	return filepath.Join(c.DataDir, OutputDir)
}

// OutputFile returns the path of a named file in the output directory.
func (c Config) OutputFile(name string) string {
	return filepath.Join(c.OutputPath(), name)
}
