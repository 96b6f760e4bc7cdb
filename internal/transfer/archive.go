package transfer

import (
	"time"

	"donorhub/internal/domain"
	"donorhub/pkg/zip"
)

// Archive bundles the JSON document and the XLSX workbook into one
// dated zip download.
func Archive(donors []domain.Donor, groups []domain.Group, now time.Time) ([]byte, error) {
	doc, err := Export(donors, groups, now).Encode()
	if err != nil {
		return nil, err
	}
	book, err := Workbook(donors, groups, now)
	if err != nil {
		return nil, err
	}
	return zip.Bundle([]zip.Entry{
		{Name: Filename(now), Data: doc},
		{Name: WorkbookFilename(now), Data: book},
	})
}
