package request

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const maxRequestBodySize = 1 << 20 // 1MB

// DecodeJSON decodes JSON request body into the provided struct with size limit
func DecodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()

	limitedReader := io.LimitReader(r.Body, maxRequestBodySize)

	if err := json.NewDecoder(limitedReader).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

// GetIDParam extracts a positive integer id parameter from the URL
func GetIDParam(r *http.Request, key string) (int64, error) {
	param := chi.URLParam(r, key)
	if param == "" {
		return 0, fmt.Errorf("missing parameter: %s", key)
	}

	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id: %q", param)
	}

	return id, nil
}

// GetIntQuery extracts an integer query parameter with a default value
func GetIntQuery(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// GetBoolQuery extracts a boolean query parameter. An absent or empty value
// yields false; a malformed value is an error so filter typos surface as 400s.
func GetBoolQuery(r *http.Request, key string) (bool, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %q", key, value)
	}

	return b, nil
}

// GetPageParams extracts page/per_page query parameters. Out-of-range values
// are errors so handlers can 400 instead of silently serving a different page.
func GetPageParams(r *http.Request, defaultPerPage, maxPerPage int) (page, perPage int, err error) {
	page = GetIntQuery(r, "page", 1)
	perPage = GetIntQuery(r, "per_page", defaultPerPage)

	if page < 1 {
		return 0, 0, fmt.Errorf("page must be >= 1, got %d", page)
	}
	if perPage < 1 || perPage > maxPerPage {
		return 0, 0, fmt.Errorf("per_page must be between 1 and %d, got %d", maxPerPage, perPage)
	}

	return page, perPage, nil
}
