package enrich

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseAuditOutput(t *testing.T) {
	res, err := parseAuditOutput([]byte(`{"performance": 35.5, "accessibility": 60}`))
	if err != nil {
		t.Fatalf("parseAuditOutput: %v", err)
	}
	if res.Performance != 35.5 || res.Accessibility != 60 {
		t.Errorf("parsed = %+v", res)
	}

	for _, bad := range []string{
		`not json`,
		`{"performance": 120, "accessibility": 60}`,
		`{"performance": 50, "accessibility": -1}`,
	} {
		if _, err := parseAuditOutput([]byte(bad)); err == nil {
			t.Errorf("parseAuditOutput(%q) succeeded, want error", bad)
		}
	}
}

func TestRunAudit(t *testing.T) {
	script := filepath.Join(t.TempDir(), "audit.sh")
	body := "#!/bin/sh\necho '{\"performance\": 35, \"accessibility\": 60}'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	res, err := runAudit(script, "https://site.example", 5*time.Second)
	if err != nil {
		t.Fatalf("runAudit: %v", err)
	}
	if res.Performance != 35 || res.Accessibility != 60 {
		t.Errorf("audit result = %+v", res)
	}
}

func TestRunAuditMissingBinary(t *testing.T) {
	if _, err := runAudit("/nonexistent/audit", "https://site.example", time.Second); err == nil {
		t.Error("runAudit with missing binary succeeded, want error")
	}
}

func TestLighthouseBonus(t *testing.T) {
	tests := []struct {
		perf, access float64
		want         float64
	}{
		{100, 100, 0},
		{0, 0, 75},
		{50, 60, 35},
		{-10, 150, 50}, // out-of-range inputs clamp
	}

	for _, tt := range tests {
		if got := LighthouseBonus(tt.perf, tt.access); got != tt.want {
			t.Errorf("LighthouseBonus(%v, %v) = %v, want %v", tt.perf, tt.access, got, tt.want)
		}
	}
}

func TestAIImageBonus(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{0, 0},
		{1, 40},
		{5, 200},
		{9, 200},
	}

	for _, tt := range tests {
		if got := AIImageBonus(tt.count); got != tt.want {
			t.Errorf("AIImageBonus(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}
