package utils

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageToken is one entry of a page selector: a page number or an ellipsis
type PageToken struct {
	Number   int
	Ellipsis bool
}

// MarshalJSON renders numbers as numbers and ellipses as "..."
func (t PageToken) MarshalJSON() ([]byte, error) {
	if t.Ellipsis {
		return []byte(`"..."`), nil
	}
	return json.Marshal(t.Number)
}

// Page is one window of a list plus what a page selector needs to render it
type Page[T any] struct {
	Items       []T         `json:"items"`
	Page        int         `json:"page"`
	PageSize    int         `json:"pageSize"`
	TotalItems  int64       `json:"totalItems"`
	TotalPages  int         `json:"totalPages"`
	PageNumbers []PageToken `json:"pageNumbers"`
}

// TotalPages is ceil(total/pageSize)
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// ClampPage keeps page within [1, totalPages]
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageNumbers lists the first page, the last page and the pages adjacent to
// current, with an ellipsis standing in for each skipped run.
func PageNumbers(current, totalPages int) []PageToken {
	tokens := make([]PageToken, 0, 7)
	for i := 1; i <= totalPages; i++ {
		switch {
		case i == 1 || i == totalPages || (i >= current-1 && i <= current+1):
			tokens = append(tokens, PageToken{Number: i})
		case i == current-2 || i == current+2:
			tokens = append(tokens, PageToken{Ellipsis: true})
		}
	}
	return tokens
}

// Paginate slices items for the requested page
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := int64(len(items))
	totalPages := TotalPages(total, pageSize)
	page = ClampPage(page, totalPages)

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	pageItems := make([]T, end-start)
	copy(pageItems, items[start:end])

	return Page[T]{
		Items:       pageItems,
		Page:        page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
		PageNumbers: PageNumbers(page, totalPages),
	}
}

// NewPage wraps items already fetched with LIMIT/OFFSET from a store of total rows
func NewPage[T any](items []T, page, pageSize int, total int64) Page[T] {
	totalPages := TotalPages(total, pageSize)
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Page:        page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
		PageNumbers: PageNumbers(page, totalPages),
	}
}

// PageParams reads ?page= and ?pageSize= with defaults and bounds applied
func PageParams(c *gin.Context) (page, pageSize int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(DefaultPageSize)))
	if err != nil || pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset is the row offset of page
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}
