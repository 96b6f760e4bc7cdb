package transfer

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorhub/internal/domain"
)

func exportFixture() ([]domain.Donor, []domain.Group) {
	last := domain.Millis(1714000000000)
	donors := []domain.Donor{
		{ID: "d1", Name: "Ana Lovric", Phone: "+385 91 555 666", BloodType: domain.BloodOPos, GroupIDs: []string{"g1"}, Notes: "call first"},
		{ID: "d2", Name: "Bo Chen", Phone: "+65 8123", BloodType: domain.BloodABNeg, LastDonation: &last, GroupIDs: []string{"g1"}},
	}
	groups := []domain.Group{{ID: "g1", Name: "Office", Color: "#ef4444"}}
	return donors, groups
}

func TestExportDocumentUsesRowFieldNames(t *testing.T) {
	donors, groups := exportFixture()
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	raw, err := Export(donors, groups, now).Encode()
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "people")
	assert.Contains(t, doc, "groups")
	assert.JSONEq(t, `"2024-05-01T12:30:00Z"`, string(doc["exported_at"]))

	var people []map[string]any
	require.NoError(t, json.Unmarshal(doc["people"], &people))
	require.Len(t, people, 2)
	assert.Equal(t, "+385 91 555 666", people[0]["phone_number"])
	assert.Equal(t, "O+", people[0]["blood_group"])
	assert.Nil(t, people[0]["last_donation_date"])
	assert.Equal(t, float64(1714000000000), people[1]["last_donation_date"])
	assert.Equal(t, []any{"g1"}, people[0]["group_ids"])
}

func TestExportRoundTripsThroughImportRequest(t *testing.T) {
	donors, groups := exportFixture()
	raw, err := Export(donors, groups, time.Now()).Encode()
	require.NoError(t, err)

	var req ImportRequest
	require.NoError(t, json.Unmarshal(raw, &req))
	require.NotNil(t, req.People)
	require.NotNil(t, req.Groups)
	assert.Len(t, *req.People, 2)
	assert.Len(t, *req.Groups, 1)
	assert.Equal(t, Mode(""), req.Mode)
}

func TestDatedFilenames(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "donors-export-2024-05-01.json", Filename(now))
	assert.Equal(t, "donors-export-2024-05-01.xlsx", WorkbookFilename(now))
	assert.Equal(t, "donors-export-2024-05-01.zip", ArchiveFilename(now))
}

func TestArchiveBundlesDocumentAndWorkbook(t *testing.T) {
	donors, groups := exportFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	data, err := Archive(donors, groups, now)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "donors-export-2024-05-01.json", zr.File[0].Name)
	assert.Equal(t, "donors-export-2024-05-01.xlsx", zr.File[1].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc.People, 2)
	assert.Len(t, doc.Groups, 1)
}
