// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/libria/pkg/pagination"
)

/*
TestFromRequest verifies query parsing and clamping of abusive values.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		expectedPage  int
		expectedLimit int
	}{
		{"defaults", "/books", 1, 20},
		{"explicit", "/books?page=3&limit=50", 3, 50},
		{"zero_page", "/books?page=0", 1, 20},
		{"negative_page", "/books?page=-4", 1, 20},
		{"limit_too_large", "/books?limit=5000", 1, 20},
		{"garbage", "/books?page=abc&limit=xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", tt.url, nil)
			params := pagination.FromRequest(request)

			assert.Equal(t, tt.expectedPage, params.Page)
			assert.Equal(t, tt.expectedLimit, params.Limit)
		})
	}
}

/*
TestParams_Offset verifies the page-to-offset arithmetic.
*/
func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, pagination.Params{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, 0, pagination.Params{Page: 0, Limit: 20}.Offset())
}

/*
TestParams_SortColumn verifies the sort-key whitelist.
*/
func TestParams_SortColumn(t *testing.T) {
	allowed := map[string]string{"title": "title", "created_at": "createdat"}

	assert.Equal(t, "title", pagination.Params{Sort: "title"}.SortColumn(allowed, "createdat"))
	assert.Equal(t, "createdat", pagination.Params{Sort: "passwordhash"}.SortColumn(allowed, "createdat"))
	assert.Equal(t, "createdat", pagination.Params{}.SortColumn(allowed, "createdat"))
}

/*
TestNewMeta verifies the page-count arithmetic.
*/
func TestNewMeta(t *testing.T) {
	meta := pagination.NewMeta(2, 20, 45)

	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 45, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)

	assert.Equal(t, 0, pagination.NewMeta(1, 20, 0).TotalPages)
}
