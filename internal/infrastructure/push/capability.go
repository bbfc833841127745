// Package push implements the realtime message channel: capability detection
// from configuration and a websocket subscriber scoped to one conversation's
// message stream.
package push

import (
	"strings"

	"github.com/rs/zerolog"
)

// Capability describes whether the push channel can be attempted at all.
// Detection never fails: a missing endpoint or key simply yields Unavailable,
// and conversation sync goes straight to polling without a probe.
type Capability struct {
	Available bool
	Endpoint  string
	Key       string
}

// DetectCapability inspects the realtime configuration values. Both the
// endpoint and the access key must be present.
func DetectCapability(endpoint, key string, log zerolog.Logger) Capability {
	endpoint = strings.TrimSpace(endpoint)
	key = strings.TrimSpace(key)

	if endpoint == "" || key == "" {
		log.Debug().Msg("realtime capability unavailable, sync will poll")
		return Capability{}
	}
	return Capability{Available: true, Endpoint: endpoint, Key: key}
}
