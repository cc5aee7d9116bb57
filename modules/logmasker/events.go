package logmasker

// Event types emitted by the logmasker module.
const (
	EventTypeConfigLoaded = "com.sitekit.logmasker.config.loaded"
)
