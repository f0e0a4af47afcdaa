package utils

import "strings"

// TruncateError flattens an error message onto one line and shortens it to maxLength.
func TruncateError(errMsg string, maxLength int) string {
	errMsg = strings.Join(strings.Fields(errMsg), " ")

	if len(errMsg) <= maxLength || maxLength < 4 {
		return errMsg
	}
	return errMsg[:maxLength-3] + "..."
}
