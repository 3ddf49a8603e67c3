package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"Foodgram-Backend/cmd/config"
	migration "Foodgram-Backend/cmd/database/migrate"
	"Foodgram-Backend/domain"
	"Foodgram-Backend/internal/utils"
	"Foodgram-Backend/pkg/ingredient"
)

// Loads the ingredient catalog from a JSON or CSV file, e.g.
//
//	go run ./cmd/database/seed -file data/ingredients.json
//
// Rows that duplicate an existing (name, unit) pair are skipped.
func main() {
	file := flag.String("file", "", "path to ingredients file (.json or .csv)")
	flag.Parse()

	if *file == "" {
		log.Fatal("missing required -file flag")
	}

	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := migration.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	reqs, err := loadIngredients(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}

	ingredientService := ingredient.NewIngredientService(ingredient.NewIngredientRepository(db))
	created, err := ingredientService.ImportIngredients(context.Background(), reqs)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Imported %d of %d ingredients\n", created, len(reqs))
}

func loadIngredients(path string) ([]domain.CreateIngredientRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(f)
	case ".csv":
		return parseCSV(f)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

func parseJSON(r io.Reader) ([]domain.CreateIngredientRequest, error) {
	var reqs []domain.CreateIngredientRequest
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// parseCSV expects two columns per row: name, measurement unit. No header.
func parseCSV(r io.Reader) ([]domain.CreateIngredientRequest, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}

	reqs := make([]domain.CreateIngredientRequest, 0, len(records))
	for i, record := range records {
		if len(record) < 2 {
			return nil, fmt.Errorf("row %d: expected 2 columns, got %d", i+1, len(record))
		}
		reqs = append(reqs, domain.CreateIngredientRequest{
			Name:            strings.TrimSpace(record[0]),
			MeasurementUnit: strings.TrimSpace(record[1]),
		})
	}
	return reqs, nil
}
