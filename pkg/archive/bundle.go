package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"
)

// Entry is a single named payload going into a bundle.
type Entry struct {
	Name string
	Data []byte
}

// WriteTar bundles entries into a POSIX tar archive in name order, then
// applies the requested compression operation (OpNone leaves it untouched).
func WriteTar(entries []Entry, codec uint8) ([]byte, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	modTime := time.Unix(0, 0).UTC()

	for _, e := range sorted {
		header := &tar.Header{
			Name:    e.Name,
			Mode:    0o600,
			Size:    int64(len(e.Data)),
			ModTime: modTime,
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("writing tar header for %s: %w", e.Name, err)
		}
		if _, err := tw.Write(e.Data); err != nil {
			return nil, fmt.Errorf("writing tar data for %s: %w", e.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar writer: %w", err)
	}

	if codec == OpNone {
		return buf.Bytes(), nil
	}

	op, err := Get(codec)
	if err != nil {
		return nil, err
	}
	return op.Apply(buf.Bytes())
}

// ReadTar reverses WriteTar: it undoes the compression operation (if any)
// and returns the tar entries keyed by name.
func ReadTar(data []byte, codec uint8) (map[string][]byte, error) {
	raw := data
	if codec != OpNone {
		op, err := Get(codec)
		if err != nil {
			return nil, err
		}
		raw, err = op.Reverse(data)
		if err != nil {
			return nil, fmt.Errorf("reversing %s: %w", op.Name(), err)
		}
	}

	tr := tar.NewReader(bytes.NewReader(raw))
	out := make(map[string][]byte)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar header: %w", err)
		}
		content := make([]byte, header.Size)
		if _, err := io.ReadFull(tr, content); err != nil {
			return nil, fmt.Errorf("reading tar entry %s: %w", header.Name, err)
		}
		out[header.Name] = content
	}
	return out, nil
}
