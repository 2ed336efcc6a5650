package stac

import (
	"net/url"
	"strconv"
)

// PaginationInfo contains information needed to build offset pagination links.
type PaginationInfo struct {
	BaseURL     string
	Offset      int
	Limit       int
	Matched     int
	QueryParams url.Values // Original query parameters
}

// BuildPaginationLinks generates next and prev links for an offset window
// over Matched results.
func BuildPaginationLinks(info PaginationInfo) []*Link {
	links := make([]*Link, 0, 2)
	if info.Limit <= 0 {
		return links
	}

	if info.Offset > 0 {
		prev := max(info.Offset-info.Limit, 0)
		links = append(links, &Link{
			Rel:  "prev",
			Href: buildPageURL(info.BaseURL, info.QueryParams, prev, info.Limit),
			Type: "application/geo+json",
		})
	}

	if next := info.Offset + info.Limit; next < info.Matched {
		links = append(links, &Link{
			Rel:  "next",
			Href: buildPageURL(info.BaseURL, info.QueryParams, next, info.Limit),
			Type: "application/geo+json",
		})
	}

	return links
}

// Page returns the window [offset, offset+limit) of n results, clamped to n.
func Page(n, offset, limit int) (start, end int) {
	start = min(offset, n)
	end = n
	if limit > 0 {
		end = min(start+limit, n)
	}
	return start, end
}

// buildPageURL constructs a URL with the given offset and limit
func buildPageURL(baseURL string, params url.Values, offset, limit int) string {
	// Clone the params to avoid modifying the original
	newParams := url.Values{}
	for key, values := range params {
		for _, value := range values {
			newParams.Add(key, value)
		}
	}

	newParams.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		newParams.Set("offset", strconv.Itoa(offset))
	} else {
		newParams.Del("offset")
	}

	return baseURL + "?" + newParams.Encode()
}
