package payload

import (
	"encoding/json"
	"errors"
	"testing"

	"donorhub/internal/domain"
)

func TestDonorNormalizeTrimsAndParses(t *testing.T) {
	p := Donor{
		ID:        "d1",
		Name:      "  Ana Lovric ",
		Phone:     " +385 91 555 666 ",
		BloodType: "ab+",
		GroupIDs:  []string{"g1", " g1 ", "", "g2"},
		Notes:     " call first ",
	}
	d, err := p.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if d.Name != "Ana Lovric" {
		t.Fatalf("Name = %q", d.Name)
	}
	if d.Phone != "+385 91 555 666" {
		t.Fatalf("Phone = %q", d.Phone)
	}
	if d.BloodType != domain.BloodABPos {
		t.Fatalf("BloodType = %q", d.BloodType)
	}
	if len(d.GroupIDs) != 2 || d.GroupIDs[0] != "g1" || d.GroupIDs[1] != "g2" {
		t.Fatalf("GroupIDs = %v, want deduplicated [g1 g2]", d.GroupIDs)
	}
	if d.Notes != "call first" {
		t.Fatalf("Notes = %q", d.Notes)
	}
}

func TestDonorNormalizeAssignsMissingID(t *testing.T) {
	p := Donor{Name: "Ana", BloodType: "O-"}
	d, err := p.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if d.ID == "" {
		t.Fatal("expected a generated ID")
	}
}

func TestDonorNormalizeRejectsMissingName(t *testing.T) {
	_, err := Donor{BloodType: "A+"}.Normalize()
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestDonorNormalizeRejectsUnknownBloodType(t *testing.T) {
	_, err := Donor{Name: "Ana", BloodType: "H+"}.Normalize()
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestFlexIDAcceptsNumbersAndStrings(t *testing.T) {
	var p Donor
	raw := `{"id": 1715000000001, "name": "Ana", "bloodType": "B+"}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != "1715000000001" {
		t.Fatalf("ID = %q, want numeric value coerced to string", p.ID)
	}

	raw = `{"id": "d42", "name": "Ana", "bloodType": "B+"}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != "d42" {
		t.Fatalf("ID = %q", p.ID)
	}

	raw = `{"id": null, "name": "Ana", "bloodType": "B+"}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != "" {
		t.Fatalf("ID = %q, want empty for null", p.ID)
	}
}

func TestFromDonorWireShape(t *testing.T) {
	last := domain.Millis(1715000000000)
	d := domain.Donor{
		ID:           "d1",
		Name:         "Ana",
		Phone:        "+385 91 555 666",
		BloodType:    domain.BloodOPos,
		LastDonation: &last,
		Location:     "HR",
	}
	b, err := json.Marshal(FromDonor(d))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["bloodType"] != "O+" {
		t.Fatalf("bloodType = %v", decoded["bloodType"])
	}
	if decoded["lastDonation"] != float64(1715000000000) {
		t.Fatalf("lastDonation = %v, want epoch millis number", decoded["lastDonation"])
	}
	if _, ok := decoded["groupIds"].([]any); !ok {
		t.Fatalf("groupIds should marshal as an array, got %T", decoded["groupIds"])
	}
}

func TestFromDonorNeverDonatedMarshalsNull(t *testing.T) {
	b, err := json.Marshal(FromDonor(domain.Donor{ID: "d1", Name: "Ana", BloodType: domain.BloodANeg}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v, present := decoded["lastDonation"]
	if !present || v != nil {
		t.Fatalf("lastDonation = %v (present=%t), want explicit null", v, present)
	}
}

func TestGroupNormalize(t *testing.T) {
	g, err := Group{ID: "g1", Name: " Office ", Color: "#ef4444"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if g.Name != "Office" || g.Color != "#ef4444" {
		t.Fatalf("got %+v", g)
	}

	if _, err := (Group{Name: "  "}).Normalize(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
