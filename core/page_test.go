package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID int `json:"id"`
}

func TestPage_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantCount int
		wantPages int
		wantIDs   []int
	}{
		{name: "envelope", data: `{"count": 12, "pages": 3, "results": [{"id": 1}, {"id": 2}]}`, wantCount: 12, wantPages: 3, wantIDs: []int{1, 2}},
		{name: "raw array", data: ` [{"id": 3}]`, wantCount: 1, wantPages: 1, wantIDs: []int{3}},
		{name: "empty array", data: `[]`, wantPages: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page Page[item]
			require.NoError(t, json.Unmarshal([]byte(tt.data), &page))
			assert.Equal(t, tt.wantCount, page.Count)
			assert.Equal(t, tt.wantPages, page.Pages)
			ids := make([]int, 0)
			for _, it := range page.Results {
				ids = append(ids, it.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestPageRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        PageRequest
		want       PageRequest
		wantOffset int
	}{
		{name: "defaults", want: PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{name: "bounded", req: PageRequest{Page: 3, PageSize: 1000}, want: PageRequest{Page: 3, PageSize: MaxPageSize}, wantOffset: 2 * MaxPageSize},
		{name: "kept", req: PageRequest{Page: 2, PageSize: 10}, want: PageRequest{Page: 2, PageSize: 10}, wantOffset: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Clean()
			assert.Equal(t, tt.want, tt.req)
			assert.Equal(t, tt.wantOffset, tt.req.Offset())
		})
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage[item](nil, 101, PageRequest{Page: 1, PageSize: 50})
	assert.Equal(t, 3, page.Pages)
	assert.NotNil(t, page.Results)
}
