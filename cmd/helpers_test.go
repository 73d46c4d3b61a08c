package cmd

import "testing"

func TestStringParam(t *testing.T) {
	params := map[string]interface{}{"name": "demo", "bad": 7}
	if got := StringParam(params, "name", "x"); got != "demo" {
		t.Errorf("got %q", got)
	}
	if got := StringParam(params, "missing", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
	if got := StringParam(params, "bad", "fallback"); got != "fallback" {
		t.Errorf("wrong type should fall back, got %q", got)
	}
}

func TestIntParam(t *testing.T) {
	// JSON numbers decode as float64.
	params := map[string]interface{}{"x": float64(500), "native": 7, "bad": "nope"}
	if got := IntParam(params, "x", 0); got != 500 {
		t.Errorf("got %d", got)
	}
	if got := IntParam(params, "native", 0); got != 7 {
		t.Errorf("got %d", got)
	}
	if got := IntParam(params, "missing", 42); got != 42 {
		t.Errorf("got %d", got)
	}
	if got := IntParam(params, "bad", 42); got != 42 {
		t.Errorf("got %d", got)
	}
}

func TestFloatParam(t *testing.T) {
	params := map[string]interface{}{"speed": 2.5}
	if got := FloatParam(params, "speed", 1.0); got != 2.5 {
		t.Errorf("got %v", got)
	}
	if got := FloatParam(params, "missing", 1.0); got != 1.0 {
		t.Errorf("got %v", got)
	}
}

func TestBoolParam(t *testing.T) {
	params := map[string]interface{}{"verify": true}
	if !BoolParam(params, "verify", false) {
		t.Error("got false")
	}
	if !BoolParam(params, "missing", true) {
		t.Error("default not applied")
	}
}
