package secret

import (
	"encoding/json"
	"testing"
)

func TestDecodeValue_JSONObject(t *testing.T) {
	v := DecodeValue(`{"a": 1}`)

	if !v.IsStructured() {
		t.Fatal("IsStructured() = false, want true")
	}
	m, ok := v.Structured().(map[string]any)
	if !ok {
		t.Fatalf("Structured() = %T, want map[string]any", v.Structured())
	}
	if m["a"] != 1 {
		t.Errorf("a = %v (%T), want 1", m["a"], m["a"])
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Marshal() = %s, want {\"a\":1}", data)
	}
}

func TestDecodeValue_PlainText(t *testing.T) {
	data, err := json.Marshal(DecodeValue("plain text"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"plain text"` {
		t.Errorf("Marshal() = %s, want \"plain text\"", data)
	}
}

func TestDecodeValue_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace", raw: "   \n"},
		{name: "unclosed flow sequence", raw: "key: [unclosed"},
		{name: "nested mapping value", raw: "key: value: other"},
		{name: "non-string key", raw: "1: one\n2: two"},
		{name: "infinity", raw: ".inf"},
		{name: "nested non-string key", raw: "outer:\n  true: yes"},
		{name: "multiple documents", raw: "a: 1\n---\nb: 2"},
		{name: "multiple json documents", raw: "{\"a\": 1}\n---\n{\"b\": 2}"},
		{name: "trailing empty document", raw: "a: 1\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DecodeValue(tt.raw)
			if v.IsStructured() {
				t.Fatalf("IsStructured() = true, want raw fallback (got %#v)", v.Structured())
			}
			if v.Raw() != tt.raw {
				t.Errorf("Raw() = %q, want %q", v.Raw(), tt.raw)
			}

			data, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			want, _ := json.Marshal(tt.raw)
			if string(data) != string(want) {
				t.Errorf("Marshal() = %s, want %s", data, want)
			}
		})
	}
}

func TestDecodeValue_YAMLDocument(t *testing.T) {
	raw := "user: admin\nport: 5432\nhosts:\n  - a.example.com\n  - b.example.com\ntls: true\n"

	data, err := json.Marshal(DecodeValue(raw))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got["user"] != "admin" {
		t.Errorf("user = %v, want admin", got["user"])
	}
	if got["port"] != float64(5432) {
		t.Errorf("port = %v, want 5432", got["port"])
	}
	if got["tls"] != true {
		t.Errorf("tls = %v, want true", got["tls"])
	}
	hosts, ok := got["hosts"].([]any)
	if !ok || len(hosts) != 2 {
		t.Fatalf("hosts = %v, want 2 entries", got["hosts"])
	}
}

func TestDecodeValue_Scalars(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "42", want: "42"},
		{raw: "3.5", want: "3.5"},
		{raw: "false", want: "false"},
		{raw: "null", want: "null"},
		{raw: `"quoted"`, want: `"quoted"`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			data, err := json.Marshal(DecodeValue(tt.raw))
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestDecodeValue_SingleDocumentMarker(t *testing.T) {
	data, err := json.Marshal(DecodeValue("---\na: 1\n"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Marshal() = %s, want {\"a\":1}", data)
	}
}

func TestDecodeValue_TimestampsKeepText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "date", raw: "2001-12-14", want: `"2001-12-14"`},
		{name: "datetime", raw: "2001-12-14t21:59:43.10-05:00", want: `"2001-12-14t21:59:43.10-05:00"`},
		{name: "explicit tag", raw: "!!timestamp 2001-12-14", want: `"2001-12-14"`},
		{name: "nested date", raw: "expires: 2024-01-01\nuser: admin", want: `{"expires":"2024-01-01","user":"admin"}`},
		{name: "date in sequence", raw: "[2024-01-01, 2024-02-01]", want: `["2024-01-01","2024-02-01"]`},
		{name: "date key", raw: "2024-01-01: rotated", want: `{"2024-01-01":"rotated"}`},
		{name: "aliased date", raw: "a: &d 2024-01-01\nb: *d", want: `{"a":"2024-01-01","b":"2024-01-01"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DecodeValue(tt.raw)
			if !v.IsStructured() {
				t.Fatalf("IsStructured() = false, want true")
			}
			data, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	raw := RawValue("x")
	if raw.IsStructured() || raw.Raw() != "x" || raw.Structured() != nil {
		t.Errorf("RawValue accessors = (%v, %q, %v)", raw.IsStructured(), raw.Raw(), raw.Structured())
	}

	structured := StructuredValue([]any{"a"})
	if !structured.IsStructured() || structured.Raw() != "" {
		t.Errorf("StructuredValue accessors = (%v, %q)", structured.IsStructured(), structured.Raw())
	}
}
