// Package config loads the service configuration from the environment and
// carries the categorical synonym tables and matching thresholds with their
// built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/getcher123/UD-MVP/internal/normalize"
)

// ListingColumns is the column order of the listing sheet. Snapshot reads and
// row writes both follow this order; changing it requires migrating the sheet.
var ListingColumns = []string{
	"object_name",
	"building_name",
	"use_type_norm",
	"area_sqm",
	"divisible_from_sqm",
	"floors_norm",
	"market_type",
	"fitout_condition_norm",
	"delivery_date_norm",
	"rent_rate_year_sqm_base",
	"rent_vat_norm",
	"opex_year_per_sqm",
	"opex_included",
	"rent_month_total_gross",
	"sale_price_per_sqm",
	"sale_vat_norm",
	"source_file",
	"request_id",
	"recognition_summary",
	"uncertain_parameters",
	"updated_at",
}

// MatchConfig holds the fuzzy-matching thresholds.
type MatchConfig struct {
	// AreaToleranceAbs is the absolute area tolerance in square meters.
	AreaToleranceAbs float64
	// AreaTolerancePct widens the tolerance for large areas: the effective
	// tolerance is max(abs, pct/100*area).
	AreaTolerancePct float64
	// NameThreshold is the minimum similarity score for a fuzzy name match.
	NameThreshold float64
	// ScoreGapThreshold: candidates scoring within this gap of the best one
	// make the match ambiguous.
	ScoreGapThreshold float64
	// AreaPenaltyWeight scales the penalty subtracted for area deviation.
	AreaPenaltyWeight float64
}

// DeriveConfig holds the financial derivation rules.
type DeriveConfig struct {
	VATFallbackRate float64
	RateDecimals    int
	MoneyDecimals   int
	// RateMin and RateMax bound plausible annual base rates per sqm; derived
	// rates outside the bounds are flagged, not dropped.
	RateMin float64
	RateMax float64
}

// Config is the full service configuration.
type Config struct {
	HTTPAddr string
	// APIKey guards the import endpoint when set; empty disables the check.
	APIKey string

	SpreadsheetID      string
	WorksheetName      string
	LogWorksheetName   string
	HeaderRow          int
	ServiceAccountFile string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuditDatabaseURL string

	AliasFile string
	Aliases   map[string]string

	LockWaitTimeout     time.Duration
	IdempotencyCacheTTL time.Duration

	// DefaultYear fills in delivery dates that name a month without a year.
	DefaultYear int

	Match  MatchConfig
	Derive DeriveConfig

	Columns []string
}

// Load reads configuration from the environment, letting a .env file supply
// anything the environment does not already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr: GetEnv("HTTP_ADDR", ":8080"),
		APIKey:   GetEnv("API_KEY", ""),

		SpreadsheetID:      GetEnv("SPREADSHEET_ID", ""),
		WorksheetName:      GetEnv("WORKSHEET_NAME", "V1"),
		LogWorksheetName:   GetEnv("LOG_WORKSHEET_NAME", "request_log"),
		HeaderRow:          GetEnvInt("HEADER_ROW", 1),
		ServiceAccountFile: GetEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "service_account.json"),

		RedisAddr:     GetEnv("REDIS_ADDR", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("REDIS_DB", 0),

		AuditDatabaseURL: GetEnv("AUDIT_DATABASE_URL", ""),

		AliasFile: GetEnv("ALIAS_FILE", ""),

		LockWaitTimeout:     GetEnvDuration("LOCK_WAIT_TIMEOUT", 15*time.Second),
		IdempotencyCacheTTL: GetEnvDuration("IDEMPOTENCY_CACHE_TTL", 24*time.Hour),

		DefaultYear: GetEnvInt("DEFAULT_YEAR", time.Now().Year()),

		Match: MatchConfig{
			AreaToleranceAbs:  GetEnvFloat("MATCH_AREA_TOLERANCE_ABS", 2.0),
			AreaTolerancePct:  GetEnvFloat("MATCH_AREA_TOLERANCE_PCT", 1.0),
			NameThreshold:     GetEnvFloat("MATCH_NAME_THRESHOLD", 0.82),
			ScoreGapThreshold: GetEnvFloat("MATCH_SCORE_GAP_THRESHOLD", 0.05),
			AreaPenaltyWeight: GetEnvFloat("MATCH_AREA_PENALTY_WEIGHT", 0.15),
		},
		Derive: DeriveConfig{
			VATFallbackRate: GetEnvFloat("VAT_FALLBACK_RATE", 0.20),
			RateDecimals:    GetEnvInt("RATE_ROUND_DECIMALS", 2),
			MoneyDecimals:   GetEnvInt("MONEY_ROUND_DECIMALS", 0),
			RateMin:         GetEnvFloat("RATE_OUTLIER_MIN", 1000),
			RateMax:         GetEnvFloat("RATE_OUTLIER_MAX", 200000),
		},

		Columns: ListingColumns,
	}

	if cfg.AliasFile != "" {
		aliases, err := LoadAliases(cfg.AliasFile)
		if err != nil {
			return nil, err
		}
		cfg.Aliases = aliases
	}
	return cfg, nil
}

// LoadAliases reads a JSON object mapping alias building names to canonical
// sheet names.
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file %q: %w", path, err)
	}
	aliases := make(map[string]string)
	if err := json.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("failed to parse alias file %q: %w", path, err)
	}
	return aliases, nil
}

// UseTypeTable resolves use-type inputs onto the closed canon
// [офис, торговое, псн, склад].
func UseTypeTable() *normalize.Table {
	return normalize.NewTable(map[string][]string{
		"офис": {"office", "open space", "офис open space", "open-space"},
		"торговое": {
			"retail", "street-retail", "street retail", "стрит-ритейл",
			"торговое помещение", "ритейл",
		},
		"псн": {
			"psn", "помещение свободного назначения", "свободного назначения",
			"нежилое помещение свободного назначения",
		},
		"склад": {"storage", "warehouse", "складское помещение"},
	}, nil, "")
}

// FitoutTable resolves fit-out condition inputs onto
// [с отделкой, под отделку].
func FitoutTable() *normalize.Table {
	return normalize.NewTable(map[string][]string{
		"с отделкой":  {"готово к въезду", "с мебелью", "есть отделка", "отделка"},
		"под отделку": {"white box", "whitebox", "готово к отделке", "без отделки", "shell&core", "shell & core"},
	}, nil, "")
}

// VATTable resolves VAT wording onto the tri-state
// [включен, не включен, не применяется]. The partial rule catches phrasings
// like "НДС начисляется" that carry no exact synonym.
func VATTable() *normalize.Table {
	return normalize.NewTable(map[string][]string{
		"включен": {
			"включая ндс", "с ндс", "ндс включен", "ставка с ндс", "includes vat",
		},
		"не включен": {
			"без ндс", "ндс не включен", "не включая ндс", "без ндс (усн)", "плюс ндс",
		},
		"не применяется": {
			"усн", "упрощенка", "освобождено", "не облагается ндс",
			"0%", "ставка 0%", "ндс 5%", "ндс не применяется",
		},
	}, []normalize.PartialRule{
		{Contains: "начисляется ндс", Canon: "включен"},
		{Contains: "ндс начисляется", Canon: "включен"},
	}, "")
}

// OpexInclusionTable resolves the OPEX inclusion flag onto
// [включен, не включен].
func OpexInclusionTable() *normalize.Table {
	return normalize.NewTable(map[string][]string{
		"включен": {
			"включено", "включены", "включая опекс", "включая opex", "opex included",
			"да", "true", "включая эксплуатационные расходы",
		},
		"не включен": {
			"не включено", "не включены", "opex not included", "нет", "false",
			"оплачивается отдельно", "дополнительно",
		},
	}, nil, "")
}
