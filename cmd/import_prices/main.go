package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pxi/internal/config"
	"pxi/internal/db"
	"pxi/internal/store"
	"pxi/models"
)

var (
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

// priceRow is one ingredient price from the sheet. CostCents is the price of
// one Unit in minor currency units.
type priceRow struct {
	Name      string
	Unit      string
	CostCents int64
}

func main() {
	csvPath := "ingredient prices.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Configure(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	records, err := readCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	ctx := context.Background()
	ownerID, err := resolveImportOwner(ctx, database, os.Getenv("PXI_IMPORT_OWNER_EMAIL"))
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}

	created, updated, err := importPrices(ctx, store.New(database), ownerID, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d prices (%d new, %d updated) from %s\n", created+updated, created, updated, filepath.Base(csvPath))
	return nil
}

func importPrices(ctx context.Context, st *store.Store, ownerID uint, records []map[string]string) (created, updated int, err error) {
	for idx, record := range records {
		row, ok := buildPriceRow(record)
		if !ok {
			continue
		}
		isNew, err := st.UpsertIngredientPrice(ctx, ownerID, row.Name, row.Unit, row.CostCents)
		if err != nil {
			return created, updated, fmt.Errorf("record %d (%s): %w", idx+1, row.Name, err)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

func resolveImportOwner(ctx context.Context, db *gorm.DB, email string) (uint, error) {
	if db == nil {
		return 0, fmt.Errorf("database handle is nil")
	}

	email = models.NormalizeEmail(email)
	var user models.User
	if email != "" {
		if err := db.WithContext(ctx).Where("lower(email) = ?", email).First(&user).Error; err != nil {
			return 0, fmt.Errorf("find owner by email %q: %w", email, err)
		}
		return user.ID, nil
	}

	if err := db.WithContext(ctx).Order("id asc").First(&user).Error; err != nil {
		return 0, fmt.Errorf("find default owner: %w", err)
	}
	return user.ID, nil
}

// readCSV returns one map per data row keyed by lower-cased header.
func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func buildPriceRow(record map[string]string) (priceRow, bool) {
	name := normalizeText(firstValue(record, "name", "ingredient", "ingredient name"))
	if name == "" {
		return priceRow{}, false
	}
	cost, ok := parseMoney(firstValue(record, "cost", "price", "unit cost"))
	if !ok || cost.IsNegative() {
		return priceRow{}, false
	}
	return priceRow{
		Name:      name,
		Unit:      normalizeValue(record["unit"]),
		CostCents: cost.Shift(2).Round(0).IntPart(),
	}, true
}

func firstValue(record map[string]string, keys ...string) string {
	for _, key := range keys {
		if value := normalizeValue(record[key]); value != "" {
			return value
		}
	}
	return ""
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	value = cleanWhitespace.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// parseMoney reads the first number in value, ignoring currency symbols and
// thousands separators, in major currency units.
func parseMoney(value string) (decimal.Decimal, bool) {
	value = strings.ReplaceAll(normalizeValue(value), ",", "")
	match := numberPattern.FindString(value)
	if match == "" {
		return decimal.Zero, false
	}
	parsed, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, false
	}
	return parsed, true
}
