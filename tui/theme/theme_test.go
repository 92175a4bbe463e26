package theme

import "testing"

func TestLoadIcons(t *testing.T) {
	t.Cleanup(func() { LoadIcons("") })

	LoadIcons("nerd")
	if IconSuccess != nerdIconSuccess {
		t.Errorf("Expected nerd success icon, got %q", IconSuccess)
	}

	LoadIcons("plain")
	if IconSuccess != asciiIconSuccess || IconArrow != "=>" {
		t.Errorf("Expected plain icons, got %q and %q", IconSuccess, IconArrow)
	}
}

func TestSetTheme(t *testing.T) {
	original := DefaultTheme
	t.Cleanup(func() { DefaultTheme = original })

	SetTheme("")
	if DefaultTheme != original {
		t.Error("Empty name should keep the current theme")
	}

	SetTheme("terminal")
	if DefaultTheme == original {
		t.Error("Expected a new theme after SetTheme")
	}
}
