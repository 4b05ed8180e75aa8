package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer

	data := map[string]any{
		"name":  "rain",
		"value": 123,
	}
	if err := Output(data, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if result["name"] != "rain" {
		t.Errorf("name = %v, want %q", result["name"], "rain")
	}
}

func TestOutput_YAML(t *testing.T) {
	var buf bytes.Buffer

	data := map[string]any{
		"name":  "rain",
		"value": 123,
	}
	if err := Output(data, OutputOptions{Format: FormatYAML, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "name: rain") {
		t.Errorf("Output should contain 'name: rain', got: %s", buf.String())
	}
}

func TestOutput_DefaultFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(map[string]string{"key": "value"}, OutputOptions{Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "key: value") {
		t.Errorf("Default format should be YAML, got: %s", buf.String())
	}
}

type jsonOnly struct{ v float64 }

func (j jsonOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]float64{"energy": j.v})
}

func TestOutput_YAMLUsesJSONMarshaler(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(jsonOnly{0.25}, OutputOptions{Format: FormatYAML, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "energy: 0.25") {
		t.Errorf("got: %s", buf.String())
	}
}

func TestOutput_Raw(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"bytes", []byte("raw binary data"), "raw binary data"},
		{"string", "raw string data", "raw string data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Output(tt.data, OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
				t.Fatalf("Output error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Output = %q, want %q", buf.String(), tt.want)
			}
		})
	}

	var buf bytes.Buffer
	if err := Output(map[string]int{"count": 42}, OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "count: 42") {
		t.Errorf("Output should contain YAML, got: %s", buf.String())
	}
}

type testCard struct{}

func (testCard) Card() Card {
	return Card{
		Title: "Listen",
		Rows: []Row{
			{Label: "mood", Value: "positive/bright", Level: 0.4, Gauge: true},
			{Label: "space", Value: "open"},
		},
		Footer: "3 components",
	}
}

func TestOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(testCard{}, OutputOptions{Format: FormatTable, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Listen", "mood", "positive/bright", "3 components", "▓"} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q:\n%s", want, out)
		}
	}

	// Non-card values fall back to YAML.
	buf.Reset()
	if err := Output(map[string]int{"n": 1}, OutputOptions{Format: FormatTable, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "n: 1") {
		t.Errorf("got: %s", buf.String())
	}
}

func TestOutput_Query(t *testing.T) {
	data := map[string]any{
		"components": []map[string]any{
			{"category": "rain", "triggers": []string{"rain"}},
			{"category": "thunder", "triggers": []string{"storm"}},
		},
	}

	var buf bytes.Buffer
	err := Output(data, OutputOptions{Format: FormatJSON, Writer: &buf, Query: "[.components[].category]"})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}
	var got []string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v (%s)", err, buf.String())
	}
	if len(got) != 2 || got[0] != "rain" || got[1] != "thunder" {
		t.Errorf("query result = %v", got)
	}

	if err := Output(data, OutputOptions{Writer: &buf, Query: ".[["}); err == nil {
		t.Error("expected error for invalid query")
	}
}

func TestQuery_MultipleResults(t *testing.T) {
	got, err := Query([]int{1, 2, 3}, ".[] | select(. > 1)")
	if err != nil {
		t.Fatal(err)
	}
	list, ok := got.([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("Query = %#v, want two results", got)
	}
}

func TestOutput_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("data", OutputOptions{Format: "invalid", Writer: &buf}); err == nil {
		t.Error("Output should fail for unsupported format")
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"yaml", "json", "table", "raw", ""} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestOutput_ToFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "output.json")
	if err := Output(map[string]string{"key": "value"}, OutputOptions{Format: FormatJSON, File: filePath}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	var result map[string]string
	if err := json.Unmarshal(content, &result); err != nil {
		t.Fatalf("Invalid JSON in file: %v", err)
	}
	if result["key"] != "value" {
		t.Errorf("key = %q, want %q", result["key"], "value")
	}
}

func TestOutputBytes(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "scene.wav")
	data := []byte{0x00, 0x01, 0x02, 0x03}
	if err := OutputBytes(data, filePath); err != nil {
		t.Fatalf("OutputBytes error: %v", err)
	}
	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !bytes.Equal(content, data) {
		t.Errorf("File content = %v, want %v", content, data)
	}
	if err := OutputBytes(data, ""); err == nil {
		t.Error("OutputBytes should fail for empty path")
	}
}

func TestGauge(t *testing.T) {
	tests := []struct {
		level float64
		want  string
	}{
		{0, "░░░░░░░░░░|░░░░░░░░░░"},
		{1, "░░░░░░░░░░|▓▓▓▓▓▓▓▓▓▓"},
		{-0.5, "░░░░░▓▓▓▓▓|░░░░░░░░░░"},
		{3, "░░░░░░░░░░|▓▓▓▓▓▓▓▓▓▓"},
	}
	for _, tt := range tests {
		if got := gauge(tt.level); got != tt.want {
			t.Errorf("gauge(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
