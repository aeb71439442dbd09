package env

import "os"

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// InstanceID names the running process in logs and lock values. Heroku's
// DYNO wins over an explicit COGSDESK_INSTANCE_ID.
func InstanceID() string {
	if dyno := os.Getenv("DYNO"); dyno != "" {
		return dyno
	}
	return Get("COGSDESK_INSTANCE_ID", "local")
}
