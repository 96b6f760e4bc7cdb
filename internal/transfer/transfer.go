// Package transfer builds and applies portable copies of the directory:
// the JSON export document, the XLSX workbook and the zip bundle, plus
// the import path that loads a document back into the local blobs.
package transfer

import (
	"encoding/json"
	"time"

	"donorhub/internal/domain"
	"donorhub/internal/store"
)

// Document is the portable backup shape. People and groups use the
// remote row field names so an export stays byte-compatible with
// backups made against the hosted backend.
type Document struct {
	People     []store.PersonRow `json:"people"`
	Groups     []store.GroupRow  `json:"groups"`
	ExportedAt time.Time         `json:"exported_at"`
}

// Export snapshots the collections into a document.
func Export(donors []domain.Donor, groups []domain.Group, now time.Time) Document {
	people := make([]store.PersonRow, 0, len(donors))
	for _, d := range donors {
		people = append(people, store.PersonRowFrom(d))
	}
	rows := make([]store.GroupRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, store.GroupRowFrom(g))
	}
	return Document{People: people, Groups: rows, ExportedAt: now.UTC().Truncate(time.Second)}
}

// Encode renders the document as indented JSON, the exact bytes the
// download endpoint and the backup snapshots write.
func (d Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Filename returns the dated name for a JSON export.
func Filename(now time.Time) string {
	return datedName(now, ".json")
}

// WorkbookFilename returns the dated name for the XLSX export.
func WorkbookFilename(now time.Time) string {
	return datedName(now, ".xlsx")
}

// ArchiveFilename returns the dated name for the zip bundle.
func ArchiveFilename(now time.Time) string {
	return datedName(now, ".zip")
}

func datedName(now time.Time, ext string) string {
	return "donors-export-" + now.UTC().Format("2006-01-02") + ext
}
