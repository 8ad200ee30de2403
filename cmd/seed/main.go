package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jtaylor/mealcart-backend/config"
	"github.com/jtaylor/mealcart-backend/internal/app/model"
	"github.com/jtaylor/mealcart-backend/internal/db"
	"github.com/jtaylor/mealcart-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Seeds the catalog from an .xlsx workbook with four sheets:
//
//	Categories:        label
//	Conversions:       unit_from | unit_to | food_type | factor
//	Ingredients:       food_name | unit | category | unit_to | food_type
//	RecipeIngredients: recipe_title | recipe_category | prep_time | difficulty | spice_level | food_name | unit | quantity
//
// Ingredients reference their conversion by (unit, unit_to, food_type).
// A demo account (demo / demo-password) is created alongside the catalog.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading catalog workbook: %s\n", filePath)
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	gdb := db.GetDB()

	categories, err := seedCategories(gdb, f)
	if err != nil {
		log.Fatal("Failed to seed categories:", err)
	}
	fmt.Printf("Categories imported: %d\n", len(categories))

	conversions, err := seedConversions(gdb, f)
	if err != nil {
		log.Fatal("Failed to seed conversions:", err)
	}
	fmt.Printf("Conversions imported: %d\n", len(conversions))

	ingredients, err := seedIngredients(gdb, f, categories, conversions)
	if err != nil {
		log.Fatal("Failed to seed ingredients:", err)
	}
	fmt.Printf("Ingredients imported: %d\n", len(ingredients))

	recipeCount, err := seedRecipes(gdb, f, ingredients)
	if err != nil {
		log.Fatal("Failed to seed recipes:", err)
	}
	fmt.Printf("Recipes imported: %d\n", recipeCount)

	if err := seedDemoUser(gdb); err != nil {
		log.Fatal("Failed to seed demo user:", err)
	}

	fmt.Println("Import completed successfully!")
}

func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no data rows", sheet)
	}
	return rows[1:], nil
}

func seedCategories(gdb *gorm.DB, f *excelize.File) (map[string]uint, error) {
	rows, err := sheetRows(f, "Categories")
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string]uint)
	for _, row := range rows {
		if len(row) < 1 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		label := strings.TrimSpace(row[0])
		if _, seen := byLabel[label]; seen {
			continue
		}

		category := model.Category{CategoryLabel: label}
		if err := gdb.Create(&category).Error; err != nil {
			return nil, err
		}
		byLabel[label] = category.ID
	}
	return byLabel, nil
}

// conversionKey identifies a conversion row inside the workbook.
func conversionKey(unitFrom, unitTo, foodType string) string {
	return unitFrom + "|" + unitTo + "|" + foodType
}

func seedConversions(gdb *gorm.DB, f *excelize.File) (map[string]uint, error) {
	rows, err := sheetRows(f, "Conversions")
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]uint)
	for i, row := range rows {
		if len(row) < 4 {
			continue
		}
		unitFrom := strings.TrimSpace(row[0])
		unitTo := strings.TrimSpace(row[1])
		foodType := strings.TrimSpace(row[2])

		factor, err := decimal.NewFromString(strings.TrimSpace(row[3]))
		if err != nil {
			return nil, fmt.Errorf("Conversions row %d: bad factor %q: %w", i+2, row[3], err)
		}
		if factor.Sign() <= 0 {
			return nil, fmt.Errorf("Conversions row %d: factor must be positive", i+2)
		}

		conversion := model.Conversion{
			UnitFrom:         unitFrom,
			UnitTo:           unitTo,
			FoodType:         foodType,
			ConversionFactor: factor,
		}
		if err := gdb.Create(&conversion).Error; err != nil {
			return nil, err
		}
		byKey[conversionKey(unitFrom, unitTo, foodType)] = conversion.ID
	}
	return byKey, nil
}

// ingredientKey identifies an ingredient by its unique (food_name, unit) pair.
func ingredientKey(foodName, unit string) string {
	return foodName + "|" + unit
}

func seedIngredients(gdb *gorm.DB, f *excelize.File, categories, conversions map[string]uint) (map[string]uint, error) {
	rows, err := sheetRows(f, "Ingredients")
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]uint)
	for i, row := range rows {
		if len(row) < 5 {
			continue
		}
		foodName := strings.TrimSpace(row[0])
		unit := strings.TrimSpace(row[1])
		categoryLabel := strings.TrimSpace(row[2])
		unitTo := strings.TrimSpace(row[3])
		foodType := strings.TrimSpace(row[4])

		categoryID, ok := categories[categoryLabel]
		if !ok {
			return nil, fmt.Errorf("Ingredients row %d: unknown category %q", i+2, categoryLabel)
		}
		conversionID, ok := conversions[conversionKey(unit, unitTo, foodType)]
		if !ok {
			return nil, fmt.Errorf("Ingredients row %d: no conversion for (%s, %s, %s)", i+2, unit, unitTo, foodType)
		}

		ingredient := model.Ingredient{
			FoodName:     foodName,
			Unit:         unit,
			CategoryID:   categoryID,
			ConversionID: conversionID,
		}
		if err := gdb.Create(&ingredient).Error; err != nil {
			return nil, err
		}
		byKey[ingredientKey(foodName, unit)] = ingredient.ID
	}
	return byKey, nil
}

func seedRecipes(gdb *gorm.DB, f *excelize.File, ingredients map[string]uint) (int, error) {
	rows, err := sheetRows(f, "RecipeIngredients")
	if err != nil {
		return 0, err
	}

	recipeIDs := make(map[string]uint)
	for i, row := range rows {
		if len(row) < 8 {
			continue
		}
		title := strings.TrimSpace(row[0])

		recipeID, ok := recipeIDs[title]
		if !ok {
			prepTime, _ := strconv.Atoi(strings.TrimSpace(row[2]))
			difficulty, _ := strconv.Atoi(strings.TrimSpace(row[3]))
			spiceLevel, _ := strconv.Atoi(strings.TrimSpace(row[4]))

			recipe := model.Recipe{
				Title:      title,
				Category:   strings.TrimSpace(row[1]),
				PrepTime:   prepTime,
				Difficulty: difficulty,
				SpiceLevel: spiceLevel,
			}
			if err := gdb.Create(&recipe).Error; err != nil {
				return 0, err
			}
			recipeID = recipe.ID
			recipeIDs[title] = recipeID
		}

		foodName := strings.TrimSpace(row[5])
		unit := strings.TrimSpace(row[6])
		ingredientID, ok := ingredients[ingredientKey(foodName, unit)]
		if !ok {
			return 0, fmt.Errorf("RecipeIngredients row %d: unknown ingredient (%s, %s)", i+2, foodName, unit)
		}

		quantity, err := decimal.NewFromString(strings.TrimSpace(row[7]))
		if err != nil {
			return 0, fmt.Errorf("RecipeIngredients row %d: bad quantity %q: %w", i+2, row[7], err)
		}

		line := model.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: ingredientID,
			Quantity:     quantity,
		}
		if err := gdb.Create(&line).Error; err != nil {
			return 0, err
		}
	}
	return len(recipeIDs), nil
}

func seedDemoUser(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&model.User{}).Where("username = ?", "demo").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := util.HashPassword("demo-password")
	if err != nil {
		return err
	}

	return gdb.Create(&model.User{
		Email:        "demo@example.com",
		Username:     "demo",
		PasswordHash: hash,
	}).Error
}
