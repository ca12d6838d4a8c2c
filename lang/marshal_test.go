package lang

import (
	"encoding/json"
	"testing"
)

func TestToMap(t *testing.T) {
	fn, err := ParseString(t.Context(), "298.15 GHSERCR+R*T; 1000 N REF: 91Din !")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	m := fn.ToMap()

	segments, ok := m["segments"].([]any)
	if !ok || len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %v", m["segments"])
	}

	seg, ok := segments[0].(map[string]any)
	if !ok {
		t.Fatalf("expected segment map, got %T", segments[0])
	}

	if seg["lower"] != 298.15 || seg["upper"] != 1000.0 {
		t.Errorf("expected bounds [298.15, 1000), got [%v, %v)", seg["lower"], seg["upper"])
	}

	if seg["expr"] != "GHSERCR+R*T" {
		t.Errorf("expected canonical expression, got %v", seg["expr"])
	}

	if m["citation"] != "91Din" {
		t.Errorf("expected citation 91Din, got %v", m["citation"])
	}

	refs, ok := m["references"].([]string)
	if !ok || len(refs) != 2 || refs[0] != "GHSERCR" || refs[1] != "R" {
		t.Errorf("expected references [GHSERCR R], got %v", m["references"])
	}
}

func TestToMap_OmitsEmptyFields(t *testing.T) {
	fn, err := ParseString(t.Context(), "T;!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	m := fn.ToMap()

	if _, ok := m["citation"]; ok {
		t.Error("expected no citation key without a REF tail")
	}

	if _, ok := m["references"]; ok {
		t.Error("expected no references key for a reference-free body")
	}
}

func TestMarshalJSON(t *testing.T) {
	fn, err := ParseString(t.Context(), "298.15 1; 1000 Y T;,,N REF: 0 !")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	data, err := json.Marshal(fn)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var decoded struct {
		Segments []struct {
			Lower float64 `json:"lower"`
			Upper float64 `json:"upper"`
			Expr  string  `json:"expr"`
		} `json:"segments"`
		Citation string `json:"citation"`
	}

	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if len(decoded.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(decoded.Segments))
	}

	if decoded.Segments[1].Expr != "T" || decoded.Segments[1].Upper != 6000 {
		t.Errorf("unexpected final segment %+v", decoded.Segments[1])
	}

	if decoded.Citation != "0" {
		t.Errorf("expected citation 0, got %q", decoded.Citation)
	}
}
