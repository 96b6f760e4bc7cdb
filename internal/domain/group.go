package domain

// Group is a named label donors can be organized under.
type Group struct {
	ID    string
	Name  string
	Color string
}

// GroupPalette holds the colors cycled through when groups are created.
var GroupPalette = []string{
	"#ef4444", // red
	"#f97316", // orange
	"#eab308", // yellow
	"#22c55e", // green
	"#14b8a6", // teal
	"#3b82f6", // blue
	"#8b5cf6", // violet
	"#ec4899", // pink
}

// NextGroupColor picks the palette entry for a newly created group
// given how many groups already exist.
func NextGroupColor(existing int) string {
	if existing < 0 {
		existing = 0
	}
	return GroupPalette[existing%len(GroupPalette)]
}
