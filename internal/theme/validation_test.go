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
	"errors"
	"testing"
)

func TestValidateColor(t *testing.T) {
	tests := []struct {
		name    string
		color   string
		wantErr bool
	}{
		{"valid 6-digit hex", "#abcdef", false},
		{"valid 3-digit hex", "#abc", false},
		{"valid uppercase", "#ABCDEF", false},
		{"empty string", "", true},
		{"no hash", "abcdef", true},
		{"invalid length", "#abcd", true},
		{"invalid chars", "#xyz123", true},
		{"spaces", " #abcdef", true},
		{"trailing space", "#abcdef ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColor(tt.color)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor(%q) error = %v, wantErr %v", tt.color, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTheme(t *testing.T) {
	t.Run("valid theme", func(t *testing.T) {
		if err := ValidateTheme(DefaultTheme()); err != nil {
			t.Errorf("ValidateTheme() with default theme should not error: %v", err)
		}
	})

	t.Run("nil theme", func(t *testing.T) {
		if err := ValidateTheme(nil); err == nil {
			t.Error("ValidateTheme(nil) should error")
		}
	})

	t.Run("invalid color in theme", func(t *testing.T) {
		theme := DefaultTheme()
		theme.UserColor = "invalid"
		if err := ValidateTheme(theme); !errors.Is(err, ErrInvalidColor) {
			t.Errorf("expected ErrInvalidColor, got %v", err)
		}
	})

	t.Run("empty color in theme", func(t *testing.T) {
		theme := DefaultTheme()
		theme.AssistantColor = ""
		if err := ValidateTheme(theme); !errors.Is(err, ErrEmptyColor) {
			t.Errorf("expected ErrEmptyColor, got %v", err)
		}
	})
}
