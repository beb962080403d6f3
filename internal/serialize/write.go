package serialize

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteTo JSON-encodes doc to w.
func WriteTo(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("serialize: encode document: %w", err)
	}
	return nil
}

// WriteToSink writes doc to path, or to stdout when path is empty.
func WriteToSink(path string, doc Document) error {
	if path == "" {
		return WriteTo(os.Stdout, doc)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("serialize: create %s: %w", path, err)
	}
	defer f.Close()
	return WriteTo(f, doc)
}
