package instance

import "os"

// GetID identifies this process in logs: NOTIFY_INSTANCE_ID, then the hostname.
func GetID() string {
	if id := os.Getenv("NOTIFY_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "notify-0"
}
