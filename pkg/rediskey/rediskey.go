package rediskey

import "fmt"

// Publisher dashboard keys (global convention across services)
const ReportPrefix = "report"

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildReportKey returns "report:{publisherID}"
func BuildReportKey(publisherID string) string {
	return NamespaceKey(ReportPrefix, publisherID)
}
