package domain

// Compatibility lists the blood groups a donor of a given type can give
// to and receive from, in canonical order.
type Compatibility struct {
	DonateTo    []BloodType
	ReceiveFrom []BloodType
}

// donateRules is the single source of truth for ABO/Rh compatibility.
// Receive lists are derived by inversion so the two directions cannot
// drift apart.
var donateRules = map[BloodType][]BloodType{
	BloodAPos:  {BloodAPos, BloodABPos},
	BloodANeg:  {BloodAPos, BloodANeg, BloodABPos, BloodABNeg},
	BloodBPos:  {BloodBPos, BloodABPos},
	BloodBNeg:  {BloodBPos, BloodBNeg, BloodABPos, BloodABNeg},
	BloodABPos: {BloodABPos},
	BloodABNeg: {BloodABPos, BloodABNeg},
	BloodOPos:  {BloodAPos, BloodBPos, BloodABPos, BloodOPos},
	BloodONeg:  {BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg},
}

var compatTable = buildCompatTable()

func buildCompatTable() map[BloodType]Compatibility {
	table := make(map[BloodType]Compatibility, len(BloodTypes))
	for _, bt := range BloodTypes {
		table[bt] = Compatibility{
			DonateTo: append([]BloodType(nil), donateRules[bt]...),
		}
	}
	for _, donor := range BloodTypes {
		for _, recipient := range donateRules[donor] {
			entry := table[recipient]
			entry.ReceiveFrom = append(entry.ReceiveFrom, donor)
			table[recipient] = entry
		}
	}
	return table
}

// CompatibilityFor returns the compatibility entry for one blood type.
func CompatibilityFor(bt BloodType) (Compatibility, bool) {
	entry, ok := compatTable[bt]
	if !ok {
		return Compatibility{}, false
	}
	return Compatibility{
		DonateTo:    append([]BloodType(nil), entry.DonateTo...),
		ReceiveFrom: append([]BloodType(nil), entry.ReceiveFrom...),
	}, true
}

// CompatibilityEntry pairs a blood type with its compatibility lists.
type CompatibilityEntry struct {
	Type BloodType
	Compatibility
}

// CompatibilityTable returns an entry per blood type in canonical order.
func CompatibilityTable() []CompatibilityEntry {
	out := make([]CompatibilityEntry, 0, len(BloodTypes))
	for _, bt := range BloodTypes {
		entry, _ := CompatibilityFor(bt)
		out = append(out, CompatibilityEntry{Type: bt, Compatibility: entry})
	}
	return out
}

// CanDonate reports whether blood of type from can be given to a
// recipient of type to.
func CanDonate(from, to BloodType) bool {
	for _, bt := range donateRules[from] {
		if bt == to {
			return true
		}
	}
	return false
}
