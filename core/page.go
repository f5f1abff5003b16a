package core

import (
	"bytes"
	"encoding/json"
)

// PageRequest selects a page of a list. Zero values mean the defaults.
type PageRequest struct {
	Page     int `query:"page"`
	PageSize int `query:"page_size"`
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Clean applies the defaults and bounds.
func (p *PageRequest) Clean() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

func (p PageRequest) Offset() int { return (p.Page - 1) * p.PageSize }

// Page is the paginated envelope of list endpoints.
type Page[T any] struct {
	Count   int `json:"count"`
	Pages   int `json:"pages"`
	Results []T `json:"results"`
}

// NewPage wraps one page of results out of count items.
func NewPage[T any](results []T, count int, req PageRequest) Page[T] {
	if results == nil {
		results = []T{}
	}
	pages := 0
	if req.PageSize > 0 {
		pages = (count + req.PageSize - 1) / req.PageSize
	}
	return Page[T]{Count: count, Pages: pages, Results: results}
}

// UnmarshalJSON accepts both the envelope and a raw JSON array.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var results []T
		if err := json.Unmarshal(data, &results); err != nil {
			return err
		}
		*p = Page[T]{Count: len(results), Pages: 1, Results: results}
		return nil
	}

	var env pageEnvelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*p = Page[T](env)
	return nil
}

// pageEnvelope has no UnmarshalJSON method.
type pageEnvelope[T any] Page[T]
