package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Error("json format should give *JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Error("yaml format should give *YAMLFormatter")
	}
	if f, ok := NewFormatter(FormatTable, true).(*TableFormatter); !ok || !f.Wide {
		t.Error("table format should give a wide *TableFormatter")
	}
}

type item struct {
	ID    string          `json:"id"`
	Total json.RawMessage `json:"total"`
}

type items []item

func (it items) Table(wide bool) *Table {
	t := &Table{Headers: []string{"ID"}}
	if wide {
		t.Headers = append(t.Headers, "TOTAL")
	}
	for _, i := range it {
		if wide {
			t.AddRow(i.ID, string(i.Total))
		} else {
			t.AddRow(i.ID)
		}
	}
	return t
}

func TestTableFormatter(t *testing.T) {
	data := items{{ID: "a", Total: json.RawMessage("1.50")}, {ID: "b", Total: json.RawMessage("2")}}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "ID\na\nb\n" {
		t.Errorf("narrow table = %q", got)
	}

	buf.Reset()
	if err := (&TableFormatter{Wide: true, NoHeaders: true}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "a  1.50\nb  2\n" {
		t.Errorf("wide table = %q", got)
	}
}

func TestTableFormatter_FallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"a": 1`) {
		t.Errorf("fallback output = %q", buf.String())
	}
}

func TestTable_Render(t *testing.T) {
	table := &Table{}
	table.SetHeaders("NAME", "VALUE")
	table.AddRow("key1", "multi\nline")
	table.AddRow("key2", "")

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatal(err)
	}

	want := "NAME  VALUE\nkey1  multi line\nkey2  -\n"
	if buf.String() != want {
		t.Errorf("Render() = %q, want %q", buf.String(), want)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, item{ID: "<a>", Total: json.RawMessage("1.50")}); err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"id\": \"<a>\",\n  \"total\": 1.50\n}\n"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestYAMLFormatter(t *testing.T) {
	data := struct {
		ID    string          `json:"id"`
		Flag  string          `json:"flag"`
		State json.RawMessage `json:"state"`
	}{
		ID:    "b1",
		Flag:  "true",
		State: json.RawMessage(`{"z":1.50,"a":[1,2],"empty":{}}`),
	}

	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	if !strings.HasPrefix(got, "id: b1\n") {
		t.Errorf("output should start with id, got:\n%s", got)
	}
	for _, line := range []string{`flag: "true"`, "state:", "z: 1.50", "- 1", "- 2", "empty: {}"} {
		if !strings.Contains(got, line) {
			t.Errorf("output missing %q:\n%s", line, got)
		}
	}
	if strings.Index(got, "z: ") > strings.Index(got, "a:") {
		t.Errorf("key order not preserved:\n%s", got)
	}
	if strings.ContainsAny(got, "[]") {
		t.Errorf("flow sequences left in output:\n%s", got)
	}
}
