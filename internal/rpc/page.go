package rpc

import "github.com/damwatch/taskdesk/pkg/cerr"

// CheckPage rejects negative paging values. Zero limit means the handler's
// default.
func CheckPage(limit, offset int) error {
	if limit < 0 {
		return cerr.NewViolation("limit", "limit must not be negative", nil)
	}
	if offset < 0 {
		return cerr.NewViolation("offset", "offset must not be negative", nil)
	}
	return nil
}
