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
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()
	if theme.UserColor == "" || theme.AssistantColor == "" || theme.ErrorColor == "" {
		t.Fatalf("expected default colors to be set, got %+v", theme)
	}
}

func TestLoadThemeNonExistent(t *testing.T) {
	theme, err := LoadTheme("/nonexistent/theme.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if theme.HeaderColor != DefaultTheme().HeaderColor {
		t.Error("expected default theme to be returned")
	}
}

func TestLoadThemePartialYAML(t *testing.T) {
	themeFile := filepath.Join(t.TempDir(), "theme.yaml")
	content := "user_color: \"#00ff00\"\nerror_color: \"#f00\"\n"
	if err := os.WriteFile(themeFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write theme file: %v", err)
	}

	theme, err := LoadTheme(themeFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if theme.UserColor != "#00ff00" || theme.ErrorColor != "#f00" {
		t.Errorf("file colors not applied: %+v", theme)
	}
	if theme.AssistantColor != DefaultTheme().AssistantColor {
		t.Errorf("expected unspecified colors to keep defaults, got %s", theme.AssistantColor)
	}
}

func TestLoadThemeInvalidYAML(t *testing.T) {
	themeFile := filepath.Join(t.TempDir(), "theme.yaml")
	if err := os.WriteFile(themeFile, []byte("user_color: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write theme file: %v", err)
	}
	if _, err := LoadTheme(themeFile); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b int
	}{
		{hex: "#ffffff", r: 255, g: 255, b: 255},
		{hex: "#a6e3a1", r: 0xa6, g: 0xe3, b: 0xa1},
		{hex: "#f0a", r: 0xff, g: 0x00, b: 0xaa},
	}
	for _, tt := range tests {
		r, g, b, err := parseHex(tt.hex)
		if err != nil {
			t.Fatalf("parseHex(%q) error: %v", tt.hex, err)
		}
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("parseHex(%q) = %d,%d,%d want %d,%d,%d", tt.hex, r, g, b, tt.r, tt.g, tt.b)
		}
	}
	if _, _, _, err := parseHex("red"); err == nil {
		t.Error("expected error for named color")
	}
}

func TestToColorSchemeFallsBack(t *testing.T) {
	theme := DefaultTheme()
	theme.ToolColor = "not-a-color"
	scheme := theme.ToColorScheme()
	if scheme.Tool == nil || scheme.Header == nil || scheme.Debug == nil {
		t.Fatal("expected every style to be set")
	}
}
