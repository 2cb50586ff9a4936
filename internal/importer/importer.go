// Package importer loads oscilloscope exports into waveforms.
package importer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Func reads one export format.
type Func func(r io.Reader, sel Selector) (*Dataset, error)

// registry maps a source type, then a format type, to its reader.
var registry = map[string]map[string]Func{
	"tek_mso4": {
		"csv": ReadTekMSO4CSV,
	},
}

// Sources lists the supported source type names.
func Sources() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Formats lists the format names supported for source.
func Formats(source string) []string {
	formats := registry[strings.ToLower(source)]
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(source, format string) (Func, error) {
	formats, ok := registry[strings.ToLower(source)]
	if !ok {
		return nil, fmt.Errorf("%w: source type %q (supported: %s)", ErrUnsupported, source, strings.Join(Sources(), ", "))
	}
	fn, ok := formats[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: format type %q for %s (supported: %s)", ErrUnsupported, format, source, strings.Join(Formats(source), ", "))
	}
	return fn, nil
}

// Import reads the file at path with the importer registered for source and
// format. Names are matched case-insensitively unless sel says otherwise.
func Import(source, format, path string, sel Selector) (*Dataset, error) {
	fn, err := lookup(source, format)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer file.Close()

	ds, err := fn(file, sel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}
