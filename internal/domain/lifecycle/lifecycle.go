// Package lifecycle holds settings shared by components hooked into the application lifecycle.
package lifecycle

import "time"

// DefaultTimeout bounds start and stop hooks such as database pings and server shutdown.
const DefaultTimeout = 10 * time.Second
