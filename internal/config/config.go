package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DocsDir      string
	RFCsDir      string
	RoadmapDir   string
	DocsManifest string
	BaselineXLSX string
	KSIDocument  string
	OutputDir    string

	SearchFields        []string
	SearchFuzzy         bool
	SearchCaseSensitive bool
	FuzzyThreshold      int
	SuggestLimit        int
	ResultLimit         int
	DescriptionMaxChars int
	ExtractProseOnly    bool

	HistoryLimit int
	LogLevel     string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	docsDir := getEnv("FEDRAMP_DOCS_DIR", filepath.Join(cwd, "fedramp-docs", "markdown"))
	cfg := Config{
		DocsDir:      docsDir,
		RFCsDir:      getEnv("FEDRAMP_RFCS_DIR", filepath.Join(cwd, "fedramp-rfcs", "rfc")),
		RoadmapDir:   getEnv("FEDRAMP_ROADMAP_DIR", filepath.Join(cwd, "fedramp-roadmap")),
		DocsManifest: getEnv("DOCS_MANIFEST", ""),
		BaselineXLSX: getEnv("BASELINE_XLSX", filepath.Join(cwd, "data", "baselines", "FedRAMP_Security_Controls_Baseline.xlsx")),
		KSIDocument:  getEnv("KSI_DOCUMENT", filepath.Join(docsDir, "FRMR.KSI.key-security-indicators-with-controls.md")),
		OutputDir:    getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		SearchFields:        getEnvList("SEARCH_FIELDS", []string{"id", "name"}),
		SearchFuzzy:         getEnvBool("SEARCH_FUZZY", true),
		SearchCaseSensitive: getEnvBool("SEARCH_CASE_SENSITIVE", false),
		FuzzyThreshold:      getEnvInt("FUZZY_THRESHOLD", 70),
		SuggestLimit:        getEnvInt("SUGGEST_LIMIT", 10),
		ResultLimit:         getEnvInt("RESULT_LIMIT", 50),
		DescriptionMaxChars: getEnvInt("DESCRIPTION_MAX_CHARS", 500),
		ExtractProseOnly:    getEnvBool("EXTRACT_PROSE_ONLY", false),

		HistoryLimit: getEnvInt("HISTORY_LIMIT", 10),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if cfg.FuzzyThreshold < 0 || cfg.FuzzyThreshold > 100 {
		return Config{}, fmt.Errorf("FUZZY_THRESHOLD must be between 0 and 100, got %d", cfg.FuzzyThreshold)
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
