package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const registryPrefix = "mb"

// Backup records one full export uploaded to the backup cloud.
type Backup struct {
	Registry string `json:"registry,omitempty"`
	CloudID  string `json:"cloudId,omitempty"`
	Size     string `json:"size,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Month    string `json:"month,omitempty"`
}

// Registry formats the n-th backup registry ("mb0001").
func Registry(n int) string {
	return fmt.Sprintf("%s%04d", registryPrefix, n)
}

// NextRegistry returns the registry following last, or the first one when
// last is empty or malformed.
func NextRegistry(last string) string {
	n, err := strconv.Atoi(strings.TrimPrefix(last, registryPrefix))
	if err != nil || !strings.HasPrefix(last, registryPrefix) {
		return Registry(1)
	}
	return Registry(n + 1)
}

// MonthAbbrev returns the lower-case three letter month name ("jan").
func MonthAbbrev(m time.Month) string {
	return strings.ToLower(m.String()[:3])
}
