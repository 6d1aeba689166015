// Package instance names the running process so log lines from
// side-by-side worker replicas stay distinguishable.
package instance

import "os"

// GetID resolves the worker identity for this process. Deployments set
// WORKER_ID per replica; local runs fall back to the host name, and
// "worker-0" covers environments where neither is available.
func GetID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
