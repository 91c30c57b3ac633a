package database

import (
	"errors"
	"math"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

var ErrPageOutOfRange = errors.New("page out of range")

type PageRequest struct {
	Page  int
	Limit int
	// Skip drops rows ahead of the page window.
	Skip int
}

func (request PageRequest) Normalized() PageRequest {
	if request.Page < 1 {
		request.Page = DefaultPage
	}

	if request.Limit < 1 {
		request.Limit = DefaultLimit
	}

	if request.Limit > MaxLimit {
		request.Limit = MaxLimit
	}

	if request.Skip < 0 {
		request.Skip = 0
	}

	return request
}

// Validate reports ErrPageOutOfRange when the offset of the normalized
// request does not fit in an int.
func (request PageRequest) Validate() error {
	request = request.Normalized()
	if request.Page-1 > (math.MaxInt-request.Skip)/request.Limit {
		return ErrPageOutOfRange
	}

	return nil
}

func (request PageRequest) Offset() int {
	return (request.Page-1)*request.Limit + request.Skip
}

type PageMeta struct {
	TotalItems   int `json:"totalItems"`
	ItemCount    int `json:"itemCount"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

type Page[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

func newPage[T any](items []T, total int, request PageRequest) Page[T] {
	return Page[T]{
		Items: items,
		Meta: PageMeta{
			TotalItems:   total,
			ItemCount:    len(items),
			ItemsPerPage: request.Limit,
			TotalPages:   (total + request.Limit - 1) / request.Limit,
			CurrentPage:  request.Page,
		},
	}
}

// MapPage converts the items of a page and keeps its meta.
func MapPage[T any, Y any](page Page[T], convert func(T) Y) Page[Y] {
	items := make([]Y, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}

	return Page[Y]{
		Items: items,
		Meta:  page.Meta,
	}
}
