package transfer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"donorhub/internal/domain"
)

const (
	donorsSheet = "Donors"
	groupsSheet = "Groups"
)

var (
	donorHeaders = []string{"ID", "Name", "Phone", "Blood Type", "Last Donation", "Eligibility", "Groups", "Notes", "Location"}
	donorWidths  = []float64{38, 24, 18, 11, 14, 18, 28, 32, 12}

	groupHeaders = []string{"ID", "Name", "Color", "Members"}
	groupWidths  = []float64{38, 24, 10, 10}
)

// Workbook renders the directory as an XLSX file with one sheet per
// collection. Eligibility and group names are resolved at render time
// so the sheet reads without the app.
func Workbook(donors []domain.Donor, groups []domain.Group, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	donorIndex, err := f.NewSheet(donorsSheet)
	if err != nil {
		return nil, fmt.Errorf("donors sheet: %w", err)
	}
	if _, err := f.NewSheet(groupsSheet); err != nil {
		return nil, fmt.Errorf("groups sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	f.SetActiveSheet(donorIndex)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(groups))
	members := make(map[string]int, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	for _, d := range donors {
		for _, id := range d.GroupIDs {
			members[id]++
		}
	}

	if err := writeHeader(f, donorsSheet, donorHeaders, bold); err != nil {
		return nil, err
	}
	if err := setWidths(f, donorsSheet, donorWidths); err != nil {
		return nil, err
	}
	for i, d := range donors {
		values := []any{
			d.ID, d.Name, d.Phone, string(d.BloodType),
			lastDonationCell(d), d.EligibilityLabel(now),
			groupNamesCell(d, names), d.Notes, d.Location,
		}
		if err := writeRow(f, donorsSheet, i+2, values); err != nil {
			return nil, err
		}
	}

	if err := writeHeader(f, groupsSheet, groupHeaders, bold); err != nil {
		return nil, err
	}
	if err := setWidths(f, groupsSheet, groupWidths); err != nil {
		return nil, err
	}
	for i, g := range groups {
		values := []any{g.ID, g.Name, g.Color, members[g.ID]}
		if err := writeRow(f, groupsSheet, i+2, values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func setWidths(f *excelize.File, sheet string, widths []float64) error {
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func lastDonationCell(d domain.Donor) string {
	if d.LastDonation == nil {
		return ""
	}
	return d.LastDonation.Time().UTC().Format("2006-01-02")
}

func groupNamesCell(d domain.Donor, names map[string]string) string {
	if len(d.GroupIDs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(d.GroupIDs))
	for _, id := range d.GroupIDs {
		if name, ok := names[id]; ok {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, id)
	}
	return strings.Join(parts, ", ")
}
