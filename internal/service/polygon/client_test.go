package polygon

import "testing"

func TestParseFrameTradesOnly(t *testing.T) {
	frame := []byte(`[
		{"ev":"status","status":"auth_success","message":"authenticated"},
		{"ev":"T","sym":"NVDA","p":123.45,"t":1709290000000},
		{"ev":"Q","sym":"NVDA","bp":123.4,"ap":123.5},
		{"ev":"T","sym":"AMD","p":98.7,"t":1709290000500}
	]`)

	ticks := ParseFrame(frame)
	if len(ticks) != 2 {
		t.Fatalf("ticks = %v", ticks)
	}
	if ticks[0].Symbol != "NVDA" || ticks[0].Price != 123.45 {
		t.Fatalf("tick[0] = %+v", ticks[0])
	}
	if ticks[1].Symbol != "AMD" || ticks[1].Timestamp != 1709290000500 {
		t.Fatalf("tick[1] = %+v", ticks[1])
	}
}

func TestParseFrameMalformed(t *testing.T) {
	if got := ParseFrame([]byte(`{"ev":"T"}`)); got != nil {
		t.Fatalf("object frame must yield nothing, got %v", got)
	}
	if got := ParseFrame([]byte(`not json`)); got != nil {
		t.Fatalf("garbage frame must yield nothing, got %v", got)
	}
}

func TestParseFrameEmpty(t *testing.T) {
	if got := ParseFrame([]byte(`[]`)); len(got) != 0 {
		t.Fatalf("empty frame must yield no ticks, got %v", got)
	}
}
