package model

// Theme is the persisted UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme named by s, or fallback when s is unknown.
func ParseTheme(s string, fallback Theme) Theme {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s)
	}
	return fallback
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}
