package finance

import "sort"

// Icon is the renderable form of a category icon name.
type Icon struct {
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
}

// DefaultIconName is the fallback for names the table does not know.
const DefaultIconName = "Package"

// IconTable maps icon names to renderers, with an explicit default entry.
type IconTable struct {
	icons    map[string]Icon
	fallback Icon
}

// NewIconTable builds a table from name→glyph pairs. fallback must be one of
// the names.
func NewIconTable(glyphs map[string]string, fallback string) *IconTable {
	t := &IconTable{icons: make(map[string]Icon, len(glyphs))}
	for name, glyph := range glyphs {
		t.icons[name] = Icon{Name: name, Glyph: glyph}
	}
	t.fallback = t.icons[fallback]
	return t
}

var defaultIcons = NewIconTable(map[string]string{
	"Package":       "📦",
	"ShoppingCart":  "🛒",
	"Utensils":      "🍴",
	"Car":           "🚗",
	"Home":          "🏠",
	"Zap":           "⚡",
	"HeartPulse":    "🩺",
	"GraduationCap": "🎓",
	"Plane":         "✈️",
	"Gift":          "🎁",
	"Shirt":         "👕",
	"Film":          "🎬",
	"Wifi":          "📶",
	"PiggyBank":     "🐷",
	"Briefcase":     "💼",
	"Wallet":        "👛",
	"Landmark":      "🏛️",
	"Dumbbell":      "🏋️",
	"PawPrint":      "🐾",
	"Baby":          "🍼",
}, DefaultIconName)

// DefaultIcons returns the shared table of known icons.
func DefaultIcons() *IconTable {
	return defaultIcons
}

// Resolve returns the icon for name, or the default entry.
func (t *IconTable) Resolve(name string) Icon {
	if icon, ok := t.icons[name]; ok {
		return icon
	}
	return t.fallback
}

// Names lists the known icon names in order.
func (t *IconTable) Names() []string {
	names := make([]string, 0, len(t.icons))
	for name := range t.icons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
