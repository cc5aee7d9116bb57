package contact

// Event types emitted by the contact module.
const (
	EventTypeSubmitted   = "com.sitekit.contact.submitted"
	EventTypeFailed      = "com.sitekit.contact.failed"
	EventTypeRateLimited = "com.sitekit.contact.rate_limited"
	EventTypeRejected    = "com.sitekit.contact.rejected"
)
