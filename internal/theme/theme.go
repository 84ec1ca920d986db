// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package theme

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

// Theme represents the colors of the interactive shell
type Theme struct {
	HeaderColor    string `yaml:"header_color"`
	UserColor      string `yaml:"user_color"`
	AssistantColor string `yaml:"assistant_color"`
	ToolColor      string `yaml:"tool_color"`
	ErrorColor     string `yaml:"error_color"`
	DebugColor     string `yaml:"debug_color"`
}

// Styler renders text in a style. Both *pterm.Style and pterm.RGB satisfy it.
type Styler interface {
	Sprint(a ...any) string
}

// ColorScheme provides pterm and color styles based on theme
type ColorScheme struct {
	Header    Styler
	User      *color.Color
	Assistant *color.Color
	Tool      *color.Color
	Error     *color.Color
	Debug     *color.Color
}

// DefaultTheme returns a theme with default values
func DefaultTheme() *Theme {
	return &Theme{
		HeaderColor:    "#cba6f7",
		UserColor:      "#89b4fa",
		AssistantColor: "#a6e3a1",
		ToolColor:      "#fab387",
		ErrorColor:     "#f38ba8",
		DebugColor:     "#6c7086",
	}
}

// LoadTheme loads theme configuration from a YAML file. Missing fields keep
// their defaults and a missing file yields the default theme.
func LoadTheme(filepath string) (*Theme, error) {
	theme := DefaultTheme()
	if filepath == "" {
		return theme, nil
	}

	data, err := os.ReadFile(filepath)
	if os.IsNotExist(err) {
		return theme, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, theme); err != nil {
		return nil, err
	}

	return theme, nil
}

// ToColorScheme converts theme to pterm/color styles.
func (t *Theme) ToColorScheme() *ColorScheme {
	return &ColorScheme{
		Header:    headerStyle(t.HeaderColor),
		User:      hexColor(t.UserColor, color.FgCyan),
		Assistant: hexColor(t.AssistantColor, color.FgGreen),
		Tool:      hexColor(t.ToolColor, color.FgYellow),
		Error:     hexColor(t.ErrorColor, color.FgRed),
		Debug:     hexColor(t.DebugColor, color.FgHiBlack),
	}
}

// DisabledColorScheme returns a color scheme with all colors disabled (for NO_COLOR).
func DisabledColorScheme() *ColorScheme {
	// Disable color output for fatih/color and pterm
	color.NoColor = true
	pterm.DisableColor()

	return &ColorScheme{
		Header:    pterm.NewStyle(), // No colors
		User:      color.New(),      // No colors
		Assistant: color.New(),
		Tool:      color.New(),
		Error:     color.New(),
		Debug:     color.New(),
	}
}

// headerStyle falls back to a 16-color pterm style when hex does not parse.
func headerStyle(hex string) Styler {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return pterm.NewStyle(pterm.FgLightMagenta, pterm.Bold)
	}
	return pterm.NewRGB(uint8(r), uint8(g), uint8(b))
}

// hexColor turns #RGB or #RRGGBB into a true color, or the fallback attribute
// when the value does not parse.
func hexColor(hex string, fallback color.Attribute) *color.Color {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return color.New(fallback)
	}
	return color.RGB(r, g, b)
}

func parseHex(hex string) (int, int, int, error) {
	if err := ValidateColor(hex); err != nil {
		return 0, 0, 0, err
	}
	digits := hex[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	value, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return int(value >> 16 & 0xff), int(value >> 8 & 0xff), int(value & 0xff), nil
}
