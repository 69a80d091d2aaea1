package hass

import (
	"encoding/json"
	"testing"
)

func TestProperty(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		last  bool
		raw   bool
		want  string
	}{
		{"quoted", "stat_t", "~bme280/sensor/temperature", false, false, `"stat_t":"~bme280/sensor/temperature",`},
		{"quoted last", "uniq_id", "AABB_x", true, false, `"uniq_id":"AABB_x"`},
		{"raw", "exp_aft", "300", false, true, `"exp_aft":300,`},
		{"raw last", "dev", `{"name":"x"}`, true, true, `"dev":{"name":"x"}`},
		{"escapes quotes", "val_tpl", `{{ value_json["t"] }}`, true, false, `"val_tpl":"{{ value_json[\"t\"] }}"`},
		{"keeps html", "bri_val_tpl", "a < b & c", true, false, `"bri_val_tpl":"a < b & c"`},
		{"unicode", "unit_of_meas", "°C", true, false, `"unit_of_meas":"°C"`},
		{"empty value", "pl_not_avail", "", true, false, `"pl_not_avail":""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Property(tt.key, tt.value, tt.last, tt.raw); got != tt.want {
				t.Errorf("Property() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConditionalProperty(t *testing.T) {
	if got := ConditionalProperty("ic", "", false, false); got != "" {
		t.Errorf("ConditionalProperty(empty) = %q, want empty", got)
	}
	if got := ConditionalProperty("ic", "mdi:cat", false, false); got != `"ic":"mdi:cat",` {
		t.Errorf("ConditionalProperty() = %s", got)
	}
}

func TestConditionalInt(t *testing.T) {
	tests := []struct {
		value, def int
		last       bool
		want       string
	}{
		{-1, -1, false, ""},
		{300, -1, false, `"exp_aft":300,`},
		{0, -1, true, `"exp_aft":0`},
	}
	for _, tt := range tests {
		if got := ConditionalInt("exp_aft", tt.value, tt.def, tt.last); got != tt.want {
			t.Errorf("ConditionalInt(%d, %d) = %q, want %q", tt.value, tt.def, got, tt.want)
		}
	}
}

func TestConditionalBool(t *testing.T) {
	tests := []struct {
		value, def bool
		want       string
	}{
		{false, false, ""},
		{true, true, ""},
		{true, false, `"frc_upd":true,`},
		{false, true, `"frc_upd":false,`},
	}
	for _, tt := range tests {
		if got := ConditionalBool("frc_upd", tt.value, tt.def, false); got != tt.want {
			t.Errorf("ConditionalBool(%v, %v) = %q, want %q", tt.value, tt.def, got, tt.want)
		}
	}
}

func TestFragment_NoDanglingSeparator(t *testing.T) {
	tests := []struct {
		name  string
		build func(f *Fragment)
		want  string
	}{
		{
			name:  "empty",
			build: func(f *Fragment) {},
			want:  "{}",
		},
		{
			name: "trailing optional omitted",
			build: func(f *Fragment) {
				f.Add("a", "1").AddIf("b", "")
			},
			want: `{"a":"1"}`,
		},
		{
			name: "leading optional omitted",
			build: func(f *Fragment) {
				f.AddIf("a", "").AddIntIf("b", -1, -1).Add("c", "3")
			},
			want: `{"c":"3"}`,
		},
		{
			name: "middle omitted",
			build: func(f *Fragment) {
				f.Add("a", "1").AddBoolIf("b", false, false).AddRaw("c", "[1]")
			},
			want: `{"a":"1","c":[1]}`,
		},
		{
			name: "merge",
			build: func(f *Fragment) {
				f.Add("a", "1").Merge(`"b":"2","c":"3",`).Merge("").AddIf("d", "4")
			},
			want: `{"a":"1","b":"2","c":"3","d":"4"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Fragment
			tt.build(&f)
			got := f.Object()
			if got != tt.want {
				t.Errorf("Object() = %s, want %s", got, tt.want)
			}
			if !json.Valid([]byte(got)) {
				t.Errorf("Object() = %s is not valid JSON", got)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	if got := escape(`host"name`); got != `host\"name` {
		t.Errorf("escape() = %s", got)
	}
}
