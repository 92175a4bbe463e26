package theme

import "os"

// IconsEnv selects the icon set: "nerd" for Nerd Font glyphs, anything else
// for plain unicode.
const IconsEnv = "MOONSYNC_ICONS"

// Nerd Font Icons (Private Constants)
const (
	nerdIconSuccess = "󰄬" // md-check (U+F012C)
	nerdIconWarning = "" // fa-warning (U+F071)
	nerdIconArrow   = "󰁔" // md-arrow_right (U+F0054)
	nerdIconSelect  = "󰱒" // md-checkbox_outline (U+F0C52)
)

const (
	asciiIconSuccess = "✓"
	asciiIconWarning = "⚠"
	asciiIconArrow   = "=>"
	asciiIconSelect  = "▶"
)

// Public Icon Variables
var (
	IconSuccess string
	IconWarning string
	IconArrow   string
	IconSelect  string
)

func init() {
	LoadIcons(os.Getenv(IconsEnv))
}

// LoadIcons switches the public icon variables to the named set.
func LoadIcons(set string) {
	if set == "nerd" {
		IconSuccess = nerdIconSuccess
		IconWarning = nerdIconWarning
		IconArrow = nerdIconArrow
		IconSelect = nerdIconSelect
		return
	}
	IconSuccess = asciiIconSuccess
	IconWarning = asciiIconWarning
	IconArrow = asciiIconArrow
	IconSelect = asciiIconSelect
}
