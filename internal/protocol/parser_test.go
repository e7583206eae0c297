package protocol

import "testing"

func TestParseResult(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Result
	}{
		{"comment", "# [PSQ] [BT WAKE Disabled Start]", Result{ResultComment, InvalidStatus, "[PSQ] [BT WAKE Disabled Start]"}},
		{"info", "$$ [MANU] PG2 ON", Result{ResultInfo, InvalidStatus, "[MANU] PG2 ON"}},
		{"ok bare", "OK 00000000", Result{ResultOk, 0, ""}},
		{"ok with text", "OK 00000000 E1E 0001 0000 0004 13D0", Result{ResultOk, 0, "E1E 0001 0000 0004 13D0"}},
		{"ng unknown cmd", "NG F0000006", Result{ResultNg, StatusUcmdUnknownCmd, ""}},
		{"ng lowercase status", "NG e0000004 csum", Result{ResultNg, StatusRxInvalidCsum, "csum"}},
		{"ok trailing space", "OK 00000000 ", Result{ResultOk, 0, ""}},
		{"bare comment prefix", "# ", Result{ResultUnknown, InvalidStatus, "# "}},
		{"bare info prefix", "$$ ", Result{ResultUnknown, InvalidStatus, "$$ "}},
		{"short ok", "OK 0000", Result{ResultUnknown, InvalidStatus, "OK 0000"}},
		{"bad hex", "OK 0000000G", Result{ResultUnknown, InvalidStatus, "OK 0000000G"}},
		{"signed hex", "OK +0000000", Result{ResultUnknown, InvalidStatus, "OK +0000000"}},
		{"missing separator", "OK 00000000x", Result{ResultUnknown, InvalidStatus, "OK 00000000x"}},
		{"other prefix", "version", Result{ResultUnknown, InvalidStatus, "version"}},
		{"empty", "", Result{ResultUnknown, InvalidStatus, ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResult(tt.line)
			if got != tt.want {
				t.Errorf("ParseResult(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestResultFormat(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{NewSuccess("done"), "OK 00000000 done"},
		{NewNg(StatusExploitFailedEmcReset, ""), "NG DEAD0008 "},
		{Result{ResultComment, InvalidStatus, "c"}, "# c"},
		{Result{ResultInfo, InvalidStatus, "i"}, "$$ i"},
		{NewUnknown("raw text"), "raw text"},
		{NewTimeout(), "timeout"},
	}
	for _, tt := range tests {
		if got := tt.r.Format(); got != tt.want {
			t.Errorf("%+v.Format() = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestOkNgFormatRoundTrip(t *testing.T) {
	results := []Result{
		NewSuccess(""),
		NewSuccess("E1E 0001 0000 0004 13D0"),
		NewOk(0x12345678, "payload with spaces"),
		NewNg(StatusUcmdUnknownCmd, ""),
		NewNg(0xFFFFFFFE, "x"),
		NewRomFrame([]byte{0x00, 0x0a, 0xff}),
	}
	for _, r := range results {
		if got := ParseResult(r.Format()); got != r {
			t.Errorf("ParseResult(Format(%+v)) = %+v", r, got)
		}
	}
}

func TestResultPredicates(t *testing.T) {
	ok := NewSuccess("")
	if !ok.IsSuccess() || !ok.IsOkOrNg() || ok.IsNg() {
		t.Errorf("predicates wrong for %+v", ok)
	}
	ng := NewNg(StatusUcmdUnknownCmd, "")
	if !ng.IsNgStatus(StatusUcmdUnknownCmd) || ng.IsSuccess() || ng.IsOkStatus(StatusUcmdUnknownCmd) {
		t.Errorf("predicates wrong for %+v", ng)
	}
	if NewTimeout().IsOkOrNg() || !NewTimeout().IsTimeout() {
		t.Error("timeout predicates wrong")
	}
}

func TestStatusCodes(t *testing.T) {
	if StatusEmcInReset != 0xDEAD0000 {
		t.Errorf("StatusEmcInReset = 0x%08X", StatusEmcInReset)
	}
	if StatusChipConstsInvalid != 0xDEAD0009 {
		t.Errorf("StatusChipConstsInvalid = 0x%08X", StatusChipConstsInvalid)
	}
	if StatusRomFrame != 0xDEAD000A {
		t.Errorf("StatusRomFrame = 0x%08X", StatusRomFrame)
	}
	if !IsSynthetic(StatusSetPayloadPuareq2Failed) || IsSynthetic(StatusUcmdUnknownCmd) {
		t.Error("IsSynthetic classification wrong")
	}
	if StatusName(StatusFwConstsVersionUnknown) != "FwConstsVersionUnknown" {
		t.Errorf("StatusName = %q", StatusName(StatusFwConstsVersionUnknown))
	}
	if StatusName(0x1234) != "Unknown(0x00001234)" {
		t.Errorf("StatusName(0x1234) = %q", StatusName(0x1234))
	}
}
