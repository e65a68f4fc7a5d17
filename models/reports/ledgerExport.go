package reports

import (
	"fmt"

	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var ledgerHeaders = []string{
	"ID", "ItemId", "Type", "Quantity", "UnitCost", "TotalCost",
	"QtyBefore", "QtyAfter", "AvgPriceBefore", "AvgPriceAfter",
	"SourceType", "SourceId", "OrderId", "Notes", "PerformedBy", "PerformedAt",
}

// LedgerWorkbook renders ledger rows into a spreadsheet for download.
func LedgerWorkbook(entries []*models.LedgerEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	for col, header := range ledgerHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, e := range entries {
		values := []interface{}{
			e.ID, e.ItemId, string(e.TransactionType),
			e.Quantity.String(), e.UnitCost.String(), e.TotalCost.String(),
			e.QtyBefore.String(), e.QtyAfter.String(),
			priceString(e.AvgPriceBefore), priceString(e.AvgPriceAfter),
			e.SourceType, e.SourceId, e.OrderId, e.Notes,
			e.PerformedBy, e.PerformedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func priceString(p *decimal.Decimal) string {
	if p == nil {
		return ""
	}
	return p.String()
}

// LedgerFilename names the download for one ledger kind.
func LedgerFilename(kind string, workspaceId int) string {
	return fmt.Sprintf("%s-ledger-ws%d.xlsx", kind, workspaceId)
}
