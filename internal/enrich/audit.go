package enrich

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// auditPollInterval is how often the audit subprocess is checked against
// its deadline. The process is never awaited without one: a hung audit tool
// gets killed, not waited on forever.
const auditPollInterval = 500 * time.Millisecond

// AuditResult is the parsed output of the external audit command.
type AuditResult struct {
	Performance   float64 `json:"performance"`
	Accessibility float64 `json:"accessibility"`
}

// runAudit invokes the external audit binary with the target URL and parses
// its JSON stdout. The subprocess runs under a poll loop with an explicit
// deadline and is force-killed on timeout.
func runAudit(command, url string, timeout time.Duration) (*AuditResult, error) {
	cmd := exec.Command(command, url)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start audit command: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	deadline := time.Now().Add(timeout)
	for {
		select {
		case err := <-done:
			if err != nil {
				return nil, fmt.Errorf("audit command: %w", err)
			}
			return parseAuditOutput(stdout.Bytes())
		case <-time.After(auditPollInterval):
			if time.Now().After(deadline) {
				_ = cmd.Process.Kill()
				<-done
				return nil, fmt.Errorf("audit command timed out after %s", timeout)
			}
		}
	}
}

func parseAuditOutput(data []byte) (*AuditResult, error) {
	var res AuditResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse audit output: %w", err)
	}
	if res.Performance < 0 || res.Performance > 100 ||
		res.Accessibility < 0 || res.Accessibility > 100 {
		return nil, fmt.Errorf("audit scores out of range: perf=%.1f access=%.1f",
			res.Performance, res.Accessibility)
	}
	return &res, nil
}

// LighthouseBonus converts audit scores into hype points. Sluggish,
// inaccessible pages are exactly what heavy hype chrome produces, so low
// scores earn points.
func LighthouseBonus(performance, accessibility float64) float64 {
	return (100-clampScore(performance))*0.5 + (100-clampScore(accessibility))*0.25
}

// aiImageBonusPerImage and aiImageBonusCap bound the AI image bonus.
const (
	aiImageBonusPerImage = 40
	aiImageBonusCap      = 200
)

// AIImageBonus converts a suspected-AI-image count into hype points.
func AIImageBonus(count int) float64 {
	bonus := float64(count * aiImageBonusPerImage)
	if bonus > aiImageBonusCap {
		return aiImageBonusCap
	}
	return bonus
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
