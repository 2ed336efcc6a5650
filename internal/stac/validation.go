package stac

import (
	"fmt"
)

// ValidateItemsRequest checks parameter combinations that parsing alone
// cannot catch. maxLimit of 0 disables the limit check.
func ValidateItemsRequest(req *ItemsRequest, maxLimit int) error {
	if req == nil {
		return fmt.Errorf("items request cannot be nil")
	}

	if req.DateTime != "" && (req.Start != "" || req.End != "") {
		return fmt.Errorf("cannot specify both datetime and start/end")
	}

	if maxLimit > 0 && req.Limit > maxLimit {
		return fmt.Errorf("limit must be at most %d, got %d", maxLimit, req.Limit)
	}

	if req.LocationType != "" && req.Location == "" {
		return fmt.Errorf("location_type requires location")
	}

	return nil
}
