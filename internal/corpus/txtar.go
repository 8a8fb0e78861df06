package corpus

import (
	"fmt"
	"strings"

	"golang.org/x/tools/txtar"
)

// loadArchive extracts fixture sources from a txtar archive. Entries must
// be flat file names; fixtures have no subdirectories.
func loadArchive(path string) (map[string][]byte, error) {
	ar, err := txtar.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source archive: %w", err)
	}

	files := make(map[string][]byte, len(ar.Files))
	for _, f := range ar.Files {
		name := f.Name
		if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
			return nil, fmt.Errorf("archive entry %q: entries must be flat file names", name)
		}
		if _, ok := files[name]; ok {
			return nil, fmt.Errorf("archive entry %q appears twice", name)
		}
		files[name] = f.Data
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("source archive is empty")
	}
	return files, nil
}
