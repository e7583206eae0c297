package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/symbrkrs/emcbridge/internal/protocol"
)

func TestFormatFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame protocol.Result
		want  string
	}{
		{"ok", protocol.NewOk(0, "E1E 0001"), "OK 00000000 E1E 0001"},
		{"ng with name", protocol.NewNg(protocol.StatusUcmdUnknownCmd, ""), "(UcmdUnknownCmd)"},
		{"info", protocol.ParseResult("$$ [MANU] PG2 ON"), "$$ [MANU] PG2 ON"},
		{"comment", protocol.ParseResult("# [PSQ] boot"), "# [PSQ] boot"},
		{"echo", protocol.NewUnknown("version"), "version"},
		{"rom", protocol.NewRomFrame([]byte{0xAB, 0x01}), "rom< AB01"},
		{"timeout", protocol.NewTimeout(), "(timeout)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatFrame(tt.frame); !strings.Contains(got, tt.want) {
				t.Errorf("FormatFrame() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestFrameLog(t *testing.T) {
	frames := []protocol.Result{
		protocol.ParseResult("# one"),
		protocol.ParseResult("$$ two"),
		protocol.NewOk(0, "three"),
		protocol.ParseResult("$$ four"),
	}

	log := NewFrameLog(frames).SetMaxLines(2)
	lines := log.Lines()
	if len(lines) != 3 || !strings.Contains(lines[0], "2 earlier lines") || !strings.Contains(lines[2], "four") {
		t.Errorf("Lines() = %q", lines)
	}

	info := NewFrameLog(frames).FilterTypes(protocol.ResultInfo)
	if len(info.Frames) != 2 {
		t.Errorf("FilterTypes(info) kept %d frames", len(info.Frames))
	}

	out := NewFrameLog(frames).SetTitle("Boot Log").SetWidth(80).Render()
	if !strings.Contains(out, "Boot Log") || !strings.Contains(out, "three") {
		t.Errorf("Render() = %q", out)
	}
}

func TestNewFrameResult(t *testing.T) {
	ok := NewFrameResult("Version", protocol.NewOk(0, "E1E 0001 0000 0004 13D0"))
	if ok.Type != ResultSuccess || ok.Details["Response"] != "E1E 0001 0000 0004 13D0" {
		t.Errorf("OK result = %+v", ok)
	}

	ng := NewFrameResult("Unlock", protocol.NewNg(protocol.StatusExploitFailedEmcReset, ""))
	if ng.Type != ResultFailure || len(ng.Troubleshooting) == 0 {
		t.Errorf("NG result = %+v", ng)
	}
	if !strings.Contains(ng.Error.Error(), "ExploitFailedEmcReset") {
		t.Errorf("NG error = %v", ng.Error)
	}

	to := NewFrameResult("Version", protocol.NewTimeout())
	if to.Type != ResultFailure {
		t.Errorf("timeout result = %+v", to)
	}

	info := NewFrameResult("Output", protocol.ParseResult("$$ hello"))
	if info.Type != ResultWarning {
		t.Errorf("info result = %+v", info)
	}
}

func TestStatusHintsCoverSyntheticCodes(t *testing.T) {
	for s := protocol.StatusEmcInReset; s < protocol.StatusRomFrame; s++ {
		if len(StatusHints(s)) == 0 {
			t.Errorf("no hints for %s", protocol.StatusName(s))
		}
	}
}

func TestResultRenderSortsDetails(t *testing.T) {
	out := NewSuccessResult("done", map[string]string{"b": "2", "a": "1", "c": "3"}).SetWidth(80).Render()
	a, b, c := strings.Index(out, "a:"), strings.Index(out, "b:"), strings.Index(out, "c:")
	if a < 0 || !(a < b && b < c) {
		t.Errorf("details out of order:\n%s", out)
	}
}

func TestRunner(t *testing.T) {
	tests := []struct {
		name     string
		opErr    error
		wantText []string
		wantErr  bool
	}{
		{
			name:     "success",
			wantText: []string{"UNLOCK", "SUCCESS", "Unlock complete", "Duration", "Controller Output"},
		},
		{
			name:     "controller refusal uses status hints",
			opErr:    &FrameError{Result: protocol.NewNg(protocol.StatusEmcInReset, "")},
			wantText: []string{"FAILED", "EmcInReset", "held in reset"},
			wantErr:  true,
		},
		{
			name:     "plain error uses default hints",
			opErr:    errors.New("connection lost"),
			wantText: []string{"connection lost", "--verbose"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := NewRunner(RunnerConfig{
				Title:     "Unlock",
				Command:   "emcbridge-cli unlock",
				Params:    map[string]string{"Bridge": "ws://bench:8080/emc"},
				StepNames: []string{"Connect", "Unlock"},
				Verbose:   true,
				Output:    &out,
			})
			err := r.Run(context.Background(), func(_ context.Context, onStep StepCallback) (map[string]string, error) {
				onStep(1, "", StepRunning, "")
				onStep(1, "", StepComplete, "")
				r.AddFrame(protocol.ParseResult("$$ [MANU] UART CMD READY"))
				onStep(2, "", StepRunning, "")
				if tt.opErr != nil {
					onStep(2, "", StepFailed, "")
					return nil, tt.opErr
				}
				onStep(2, "", StepComplete, "")
				return map[string]string{"Serial": "F00D"}, nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.wantText {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
			if len(r.Frames()) != 1 {
				t.Errorf("Frames() = %v", r.Frames())
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	p := NewProgress("Connect", "Read version", "Unlock", "Verify")
	p.Update(1, StepComplete, "")
	p.Update(2, StepSkipped, "")
	p.Update(3, StepFailed, "")
	if p.Percent != 0.5 {
		t.Errorf("Percent = %v, want 0.5", p.Percent)
	}
	p.Update(4, StepRunning, "")
	if p.Current != 4 {
		t.Errorf("Current = %d, want 4", p.Current)
	}
	p.Update(9, StepComplete, "")

	out := p.Render()
	if !strings.Contains(out, "[4/4] ") || !strings.Contains(out, "Read version") {
		t.Errorf("Render() = %q", out)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"I AGREE\n", true},
		{"  I AGREE  \n", true},
		{"I AGREE", true},
		{"yes\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tt.input), &out, "TEST", []string{"w1"}, "disclaimer")
		if got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "WARNING") {
			t.Errorf("prompt not shown: %q", out.String())
		}
	}
}
