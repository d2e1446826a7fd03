package output

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestProgressBarBounds(t *testing.T) {
	empty := ProgressBar(0, 100, 10)
	if !strings.Contains(empty, "0.0%") {
		t.Fatalf("empty bar = %q, missing 0.0%%", empty)
	}
	full := ProgressBar(100, 100, 10)
	if !strings.Contains(full, "100.0%") {
		t.Fatalf("full bar = %q, missing 100.0%%", full)
	}
	half := ProgressBar(50, 100, 10)
	if !strings.Contains(half, "50.0%") {
		t.Fatalf("half bar = %q, missing 50.0%%", half)
	}
}

func TestProgressBarClampsOutOfRangeInput(t *testing.T) {
	over := ProgressBar(200, 100, 10)
	if !strings.Contains(over, "100.0%") {
		t.Fatalf("overshoot bar = %q, want clamp to 100%%", over)
	}
	negative := ProgressBar(-5, 100, 10)
	if !strings.Contains(negative, "0.0%") {
		t.Fatalf("negative bar = %q, want clamp to 0%%", negative)
	}
	zeroTotal := ProgressBar(0, 0, 10)
	if !strings.Contains(zeroTotal, "0.0%") {
		t.Fatalf("zero-total bar = %q, want 0%%", zeroTotal)
	}
}

func TestTrimToWidth(t *testing.T) {
	if got := trimToWidth("short", 20); got != "short" {
		t.Fatalf("trimToWidth(short, 20) = %q", got)
	}
	if got := trimToWidth("a very long line of text", 10); got != "a very ..." {
		t.Fatalf("trimToWidth = %q, want %q", got, "a very ...")
	}
	if got := trimToWidth("abcdef", 2); got != "ab" {
		t.Fatalf("trimToWidth tiny = %q, want %q", got, "ab")
	}
}

func TestTrimToWidthMeasuresCellsNotBytes(t *testing.T) {
	styled := "\x1b[31m" + strings.Repeat("x", 20) + "\x1b[0m"

	// 20 display cells inside escape sequences fit in width 20 untouched.
	if got := trimToWidth(styled, 20); got != styled {
		t.Fatalf("styled text at exact width was trimmed: %q", got)
	}

	got := trimToWidth(styled, 10)
	if w := lipgloss.Width(got); w != 10 {
		t.Fatalf("trimmed styled text renders %d cells, want 10", w)
	}
	if !strings.HasSuffix(got, "...") && !strings.HasSuffix(got, "...\x1b[0m") {
		t.Fatalf("trimmed styled text missing ellipsis: %q", got)
	}
}
