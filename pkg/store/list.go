package store

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
)

// ImageInfo is the summary of one valid slot, as surfaced by List.
type ImageInfo struct {
	ImgID      string `json:"img_id"`
	Width      uint32 `json:"width"`
	Height     uint32 `json:"height"`
	SizeOrig   uint32 `json:"size_orig"`
	HasThumb   bool   `json:"has_thumb"`
	HasSmall   bool   `json:"has_small"`
}

// List returns the summaries of every valid slot, ordered by image id so
// output is stable across runs.
func (s *Store) List() []ImageInfo {
	var out []ImageInfo
	for _, slot := range s.slots {
		if !slot.IsValid {
			continue
		}
		out = append(out, ImageInfo{
			ImgID:    slot.ImgID,
			Width:    slot.ResOrig[0],
			Height:   slot.ResOrig[1],
			SizeOrig: slot.Size[ResOrig],
			HasThumb: slot.Size[ResThumb] != 0,
			HasSmall: slot.Size[ResSmall] != 0,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ImgID < out[j].ImgID })
	return out
}

// WriteListText prints a human-readable listing to w, colorizing the
// header and image ids when w is a terminal (the caller decides that by
// passing a color.Color-aware writer; plain *os.File works through
// fatih/color's own NoColor detection).
func (s *Store) WriteListText(w io.Writer) {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "%s (version %d, IMAGE COUNT: %d, MAX IMAGES: %d)\n", StoreMagic, s.header.Version, s.header.NumFiles, s.header.MaxFiles)

	images := s.List()
	if len(images) == 0 {
		fmt.Fprintln(w, "<< empty imgStore >>")
		return
	}

	idColor := color.New(color.FgGreen)
	for _, img := range images {
		idColor.Fprintf(w, "%-32s", img.ImgID)
		fmt.Fprintf(w, " %dx%d  orig=%dB", img.Width, img.Height, img.SizeOrig)
		if img.HasThumb {
			fmt.Fprint(w, "  [thumb]")
		}
		if img.HasSmall {
			fmt.Fprint(w, "  [small]")
		}
		fmt.Fprintln(w)
	}
}

// listJSON is the wire shape of WriteListJSON's output, matching the
// original format's top-level "Images" array of ids.
type listJSON struct {
	Images []string `json:"Images"`
}

// WriteListJSON writes {"Images": [...]} with every valid image id, for
// scripts and the HTTP front-end.
func (s *Store) WriteListJSON(w io.Writer) error {
	ids := make([]string, 0, len(s.slots))
	for _, img := range s.List() {
		ids = append(ids, img.ImgID)
	}
	return json.NewEncoder(w).Encode(listJSON{Images: ids})
}
