// Package pagination implements two strategies over a deterministically
// ordered collection keyed by strictly increasing integer IDs: offset/limit
// and cursor-based.
package pagination

import (
	"sort"

	"authcore/internal/models"
)

const (
	DefaultLimit   = 10
	DefaultPerPage = 15
	MaxPageSize    = 100
)

type OffsetMeta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

type OffsetPage struct {
	Data []models.DirectoryUser `json:"data"`
	Meta OffsetMeta             `json:"meta"`
}

// Offset returns the slice [offset, offset+limit) of the ID-sorted
// collection. An offset past the end yields an empty page with
// has_more=false, not an error.
func Offset(records []models.DirectoryUser, limit, offset int) OffsetPage {
	total := len(records)

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return OffsetPage{
		Data: records[start:end],
		Meta: OffsetMeta{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: (offset + limit) < total,
		},
	}
}

type CursorMeta struct {
	PerPage    int     `json:"per_page"`
	NextCursor *string `json:"next_cursor"`
	PrevCursor *string `json:"prev_cursor"`
	HasNext    bool    `json:"has_next"`
	HasPrev    bool    `json:"has_prev"`
}

type CursorPage struct {
	Data []models.DirectoryUser `json:"data"`
	Meta CursorMeta             `json:"meta"`
}

// Cursor pages forward from an opaque cursor. The start index is the first
// record with id greater than the cursor's last-seen ID; a missing or
// malformed cursor starts at the first page, and a cursor past the end
// yields an empty page with has_next=false.
func Cursor(records []models.DirectoryUser, perPage int, cursor string) CursorPage {
	total := len(records)

	start := 0
	if lastID, ok := DecodeCursor(cursor); ok {
		start = sort.Search(total, func(i int) bool {
			return records[i].ID > lastID
		})
	}

	end := start + perPage
	if end > total {
		end = total
	}
	page := records[start:end]

	meta := CursorMeta{PerPage: perPage}

	if len(page) > 0 && (start+perPage) < total {
		next := EncodeCursor(page[len(page)-1].ID)
		meta.NextCursor = &next
		meta.HasNext = true
	}

	if start > 0 {
		// Step back one window (clamped to 0) and point the cursor at the
		// last ID of that window.
		prevStart := start - perPage
		if prevStart < 0 {
			prevStart = 0
		}
		prevEnd := prevStart + perPage
		if prevEnd > total {
			prevEnd = total
		}
		if prevEnd > prevStart {
			prev := EncodeCursor(records[prevEnd-1].ID)
			meta.PrevCursor = &prev
			meta.HasPrev = true
		}
	}

	return CursorPage{Data: page, Meta: meta}
}

// ValidatePageSize checks a limit/per_page parameter against [1,100].
func ValidatePageSize(size int) bool {
	return size >= 1 && size <= MaxPageSize
}
