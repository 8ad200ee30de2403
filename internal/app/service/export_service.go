package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jtaylor/mealcart-backend/internal/storage"
	"github.com/jtaylor/mealcart-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	exportContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportLinkExpiry   = 24 * time.Hour
	shoppingSheetName  = "Shopping List"
	exportHeaderFood   = "Item"
	exportHeaderAmount = "Amount"
)

// ExportResult points at an uploaded shopping-list workbook.
type ExportResult struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
}

// ExportService renders a consolidated shopping list into an xlsx workbook
// and uploads it to object storage.
type ExportService interface {
	ExportShoppingList(ctx context.Context, cartID uint, list *ShoppingList) (*ExportResult, error)
}

type exportService struct {
	store storage.ObjectStorage
}

func NewExportService(store storage.ObjectStorage) ExportService {
	return &exportService{store: store}
}

func (s *exportService) ExportShoppingList(ctx context.Context, cartID uint, list *ShoppingList) (*ExportResult, error) {
	body, err := renderWorkbook(list)
	if err != nil {
		logger.Error("Failed to render shopping list workbook", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}

	key := fmt.Sprintf("exports/cart-%d-%s.xlsx", cartID, uuid.New().String())
	if err := s.store.Upload(ctx, key, exportContentType, body); err != nil {
		logger.Error("Failed to upload shopping list workbook", err, map[string]interface{}{
			"cart_id": cartID,
			"key":     key,
		})
		return nil, err
	}

	url, err := s.store.PresignDownload(ctx, key, exportLinkExpiry)
	if err != nil {
		logger.Error("Failed to presign shopping list download", err, map[string]interface{}{
			"cart_id": cartID,
			"key":     key,
		})
		return nil, err
	}

	logger.Info("Shopping list exported", map[string]interface{}{
		"cart_id": cartID,
		"key":     key,
	})
	return &ExportResult{Key: key, DownloadURL: url}, nil
}

// renderWorkbook writes one section per category, preserving the list's
// ordering: categories ascending, items alphabetical within each.
func renderWorkbook(list *ShoppingList) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(shoppingSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet(f.GetSheetName(0)); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	row := 1
	for _, group := range list.Groups {
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(shoppingSheetName, cell, group.Category); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(shoppingSheetName, cell, cell, bold); err != nil {
			return nil, err
		}
		row++

		if err := f.SetCellValue(shoppingSheetName, fmt.Sprintf("A%d", row), exportHeaderFood); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(shoppingSheetName, fmt.Sprintf("B%d", row), exportHeaderAmount); err != nil {
			return nil, err
		}
		row++

		for _, item := range group.Items {
			if err := f.SetCellValue(shoppingSheetName, fmt.Sprintf("A%d", row), item.FoodName); err != nil {
				return nil, err
			}
			amount := fmt.Sprintf("%s %s", item.Quantity, item.Unit)
			if err := f.SetCellValue(shoppingSheetName, fmt.Sprintf("B%d", row), amount); err != nil {
				return nil, err
			}
			row++
		}

		// Blank row between category sections.
		row++
	}

	if err := f.SetColWidth(shoppingSheetName, "A", "B", 28); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
