package bytesize

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ByteSize
		wantErr bool
	}{
		{"plain zero", "0", 0, false},
		{"ethernet mtu", "1500", 1500, false},
		{"bytes suffix", "1500B", 1500, false},
		{"kibibytes Ki", "8Ki", 8192, false},
		{"kibibytes KiB", "8KiB", 8192, false},
		{"max udp payload", "64KiB", 65536, false},
		{"mebibytes", "1MiB", 1024 * 1024, false},
		{"gibibytes", "1Gi", 1024 * 1024 * 1024, false},
		{"kilobytes", "9KB", 9000, false},
		{"megabytes", "1M", 1000 * 1000, false},
		{"lowercase", "8kib", 8192, false},
		{"space before unit", "8 KiB", 8192, false},
		{"surrounding space", "  1500  ", 1500, false},
		{"fraction", "1.5Ki", 1536, false},

		{"empty", "", 0, true},
		{"unit only", "KiB", 0, true},
		{"unknown unit", "8XB", 0, true},
		{"negative", "-1", 0, true},
		{"overflow", "99999999999999999999", 0, true},
		{"unit overflow", "18446744073709551615Ki", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseByteSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseByteSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseByteSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   ByteSize
		want string
	}{
		{0, "0B"},
		{1500, "1500B"},
		{8192, "8KiB"},
		{8193, "8193B"},
		{65536, "64KiB"},
		{3 * MiB, "3MiB"},
		{2 * GiB, "2GiB"},
	}

	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("ByteSize(%d).String() = %q, want %q", uint64(tt.in), got, tt.want)
		}
		back, err := ParseByteSize(tt.want)
		if err != nil || back != tt.in {
			t.Errorf("ParseByteSize(%q) = %d, %v; want %d", tt.want, back, err, uint64(tt.in))
		}
	}
}

func TestTextEncoding(t *testing.T) {
	type doc struct {
		Size ByteSize `json:"size" yaml:"size"`
	}

	out, err := yaml.Marshal(doc{Size: 8 * KiB})
	if err != nil {
		t.Fatalf("yaml.Marshal failed: %v", err)
	}
	if string(out) != "size: 8KiB\n" {
		t.Errorf("unexpected YAML %q", out)
	}

	var d doc
	if err := yaml.Unmarshal([]byte("size: 16Ki\n"), &d); err != nil {
		t.Fatalf("yaml.Unmarshal failed: %v", err)
	}
	if d.Size != 16*KiB {
		t.Errorf("expected 16KiB, got %d", d.Size)
	}

	js, err := json.Marshal(doc{Size: 1500})
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if string(js) != `{"size":"1500B"}` {
		t.Errorf("unexpected JSON %s", js)
	}

	if err := json.Unmarshal([]byte(`{"size":"bogus"}`), &d); err == nil {
		t.Error("expected error for invalid size")
	}
}

func TestIntConversions(t *testing.T) {
	if got := (8 * KiB).Int(); got != 8192 {
		t.Errorf("Int() = %d, want 8192", got)
	}
	if got := ByteSize(1 << 63).Int64(); got <= 0 {
		t.Errorf("Int64() should saturate, got %d", got)
	}
}
