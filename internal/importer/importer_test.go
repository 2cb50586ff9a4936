package importer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/letgo_analyzer_go/internal/waveform"
)

const tekCSV = `Model,MSO44
Firmware Version,1.30.2
,
Waveform Type,ANALOG
Record Length,4
,
Labels,Leakage,Touch V,,Labels,Spare
TIME,CH1,CH2,,TIME,MATH1
0.0,0.001,1.5,,0.0,7
1e-6,0.002,2.5,,1e-6,8
2e-6,0.003,3.5,,,
3e-6,0.004,4.5,,,
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportTekByID(t *testing.T) {
	path := writeFile(t, tekCSV)
	ds, err := Import("TEK_MSO4", "CSV", path, Selector{IDs: []string{"ch1", "Ch2", "math1"}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	cases := []struct {
		id     string
		length int
		last   float64
	}{
		{"CH1", 4, 0.004},
		{"ch2", 4, 4.5},
		{"MATH1", 2, 8},
	}
	for _, c := range cases {
		t.Run(c.id, func(t *testing.T) {
			w, ok := ds.ByID(c.id)
			if !ok {
				t.Fatalf("%s not loaded, have %v", c.id, ds.IDs())
			}
			if w.Len() != c.length {
				t.Fatalf("len = %d, want %d", w.Len(), c.length)
			}
			if got := w.Value(w.Len() - 1); got != c.last {
				t.Fatalf("last value = %v, want %v", got, c.last)
			}
		})
	}
	if len(ds.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one for the short MATH1 group", ds.Warnings)
	}
}

func TestImportTekByLabel(t *testing.T) {
	path := writeFile(t, tekCSV)
	ds, err := Import("tek_mso4", "csv", path, Selector{Labels: []string{"touch v"}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	w, ok := ds.ByLabel("Touch V")
	if !ok {
		t.Fatal("label not loaded")
	}
	if w.Time(1) != 1e-6 || w.Value(1) != 2.5 {
		t.Fatalf("sample 1 = (%v, %v)", w.Time(1), w.Value(1))
	}
}

func TestImportTekCaseSensitive(t *testing.T) {
	path := writeFile(t, tekCSV)
	_, err := Import("tek_mso4", "csv", path, Selector{IDs: []string{"ch1"}, CaseSensitive: true})
	if err == nil || !strings.Contains(err.Error(), `"ch1"`) {
		t.Fatalf("expected missing ID error, got %v", err)
	}
}

func TestImportTekErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		sel     Selector
		want    string
	}{
		{
			name:    "missing_id",
			content: tekCSV,
			sel:     Selector{IDs: []string{"CH4", "CH3"}},
			want:    `could not find all specified IDs: "ch3","ch4"`,
		},
		{
			name:    "missing_label",
			content: tekCSV,
			sel:     Selector{Labels: []string{"nope"}},
			want:    "could not find all specified labels",
		},
		{
			name:    "duplicate_id",
			content: "Labels,,\nTIME,CH1,ch1\n0,1,2\n",
			sel:     Selector{IDs: []string{"CH1"}},
			want:    "more than one channel",
		},
		{
			name:    "no_headers",
			content: "Model,MSO44\n0,1\n",
			sel:     Selector{IDs: []string{"CH1"}},
			want:    "missing the Labels or TIME header row",
		},
		{
			name:    "group_mismatch",
			content: "Labels,a,,Labels,b\nTIME,CH1,CH2\n0,1,2\n",
			sel:     Selector{IDs: []string{"CH1"}},
			want:    "axis groups",
		},
		{
			name:    "single_row",
			content: "Labels,\nTIME,CH1\n0,1\n",
			sel:     Selector{IDs: []string{"CH1"}},
			want:    "no sample interval",
		},
		{
			name:    "bad_number",
			content: "Labels,\nTIME,CH1\n0,abc\n",
			sel:     Selector{IDs: []string{"CH1"}},
			want:    "line 3",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Import("tek_mso4", "csv", writeFile(t, c.content), c.sel)
			if !errors.Is(err, waveform.ErrInput) {
				t.Fatalf("expected input error, got %v", err)
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Fatalf("error %q does not contain %q", err, c.want)
			}
		})
	}
}

func TestImportUnsupported(t *testing.T) {
	cases := []struct {
		source, format string
	}{
		{"keysight", "csv"},
		{"tek_mso4", "isf"},
	}
	for _, c := range cases {
		t.Run(c.source+"/"+c.format, func(t *testing.T) {
			if _, err := Import(c.source, c.format, "unused", Selector{}); !errors.Is(err, ErrUnsupported) {
				t.Fatalf("expected ErrUnsupported, got %v", err)
			}
		})
	}
}

func TestImportMissingFile(t *testing.T) {
	_, err := Import("tek_mso4", "csv", filepath.Join(t.TempDir(), "absent.csv"), Selector{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestReadTekFromReader(t *testing.T) {
	ds, err := ReadTekMSO4CSV(strings.NewReader(tekCSV), Selector{IDs: []string{"CH2"}})
	if err != nil {
		t.Fatalf("ReadTekMSO4CSV: %v", err)
	}
	if got := ds.IDs(); len(got) != 1 || got[0] != "ch2" {
		t.Fatalf("IDs() = %v", got)
	}
}
