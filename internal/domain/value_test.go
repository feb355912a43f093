package domain

import "testing"

func TestValueRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Value
	}{
		{"null", NullValue()},
		{"bool", BoolValue(true)},
		{"integer", IntValue(30)},
		{"negative integer", IntValue(-7)},
		{"float", FloatValue(1234.5678)},
		{"float small", FloatValue(0.000001)},
		{"string plain", StringValue("hello")},
		{"string numeric", StringValue("30")},
		{"array", Value{Type: TypeArray, JSON: `[1,2,3]`}},
		{"object", Value{Type: TypeObject, JSON: `{"a":1}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.v.Text(), tt.v.Type)
			if err != nil {
				t.Fatalf("ParseValue: %v", err)
			}
			if got != tt.v {
				t.Errorf("round trip mismatch: got %+v, want %+v", got, tt.v)
			}
		})
	}
}

func TestValueTypeTagDisambiguates(t *testing.T) {
	// "30" tagged integer and "30" tagged string must reconstruct differently.
	asInt, err := ParseValue("30", TypeInteger)
	if err != nil {
		t.Fatalf("ParseValue integer: %v", err)
	}
	asStr, err := ParseValue("30", TypeString)
	if err != nil {
		t.Fatalf("ParseValue string: %v", err)
	}

	if asInt.Type != TypeInteger || asInt.Int != 30 {
		t.Errorf("expected integer 30, got %+v", asInt)
	}
	if asStr.Type != TypeString || asStr.Str != "30" {
		t.Errorf("expected string \"30\", got %+v", asStr)
	}
}

func TestParseValueRejectsGarbage(t *testing.T) {
	if _, err := ParseValue("not-a-number", TypeInteger); err == nil {
		t.Error("expected error for non-integer text")
	}
	if _, err := ParseValue("{broken", TypeObject); err == nil {
		t.Error("expected error for invalid JSON object")
	}
	if _, err := ParseValue("x", "decimal"); err == nil {
		t.Error("expected error for unknown type tag")
	}
}

func TestProjectAttributeLookup(t *testing.T) {
	p := &Project{
		Attributes: []Attribute{
			{Key: "token_max_supply", Value: IntValue(750_000_000)},
			{Key: "trading_volume", Value: FloatValue(12.5)},
		},
	}

	max, ok := p.IntAttribute("token_max_supply")
	if !ok || max != 750_000_000 {
		t.Errorf("expected 750000000, got %d (ok=%v)", max, ok)
	}

	if _, ok := p.IntAttribute("trading_volume"); ok {
		t.Error("float attribute should not read as integer")
	}
	if _, ok := p.Attribute("missing"); ok {
		t.Error("missing attribute should report absent")
	}
}
