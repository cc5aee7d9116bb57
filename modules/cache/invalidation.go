package cache

import (
	"encoding/json"
	"fmt"
)

// TopicInvalidate is the event bus topic carrying Invalidation messages
// between instances.
const TopicInvalidate = "sitekit.invalidate"

// Invalidation names the cache keys and key prefixes a content change
// affects.
type Invalidation struct {
	Prefixes []string `json:"prefixes"`
	Keys     []string `json:"keys,omitempty"`
	Source   string   `json:"source"`
	Reason   string   `json:"reason,omitempty"`
}

// DecodeInvalidation accepts an Invalidation, a pointer to one, or the
// decoded JSON form a networked bus delivers.
func DecodeInvalidation(payload any) (Invalidation, error) {
	switch v := payload.(type) {
	case Invalidation:
		return v, nil
	case *Invalidation:
		if v == nil {
			return Invalidation{}, fmt.Errorf("%w: nil invalidation", ErrInvalidValue)
		}
		return *v, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Invalidation{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	var inv Invalidation
	if err := json.Unmarshal(data, &inv); err != nil {
		return Invalidation{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return inv, nil
}
