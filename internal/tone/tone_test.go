// SPDX-License-Identifier: MIT
package tone

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Tone
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"Middle", Middle, false},
		{"mid", Middle, false},
		{" low ", Low, false},
		{"FALLING", Falling, false},
		{"high", High, false},
		{"rising", Rising, false},
		{"เอก", Low, false},
		{"จัตวา", Rising, false},
		{"sixth", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestToneStringAndValid(t *testing.T) {
	for _, tn := range All {
		if !tn.Valid() {
			t.Errorf("%v should be valid", tn)
		}
		back, err := Parse(tn.String())
		if err != nil || back != tn {
			t.Errorf("round trip of %v gave %v, %v", tn, back, err)
		}
	}
	if None.Valid() {
		t.Error("None must not be valid")
	}
	if got := Tone(42).String(); got != "Tone(42)" {
		t.Errorf("String() = %q", got)
	}
}

func TestToneJSON(t *testing.T) {
	b, err := json.Marshal(struct{ T Tone }{Falling})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"T":"falling"}` {
		t.Errorf("json = %s", b)
	}

	var v struct{ T Tone }
	if err := json.Unmarshal([]byte(`{"T":"high"}`), &v); err != nil || v.T != High {
		t.Errorf("unmarshal = %v, %v", v.T, err)
	}
	if err := json.Unmarshal([]byte(`{"T":"flat"}`), &v); err == nil {
		t.Error("expected error for unknown tone")
	}
}
