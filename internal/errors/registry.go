package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Integrity Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryIntegrity,
		Message:  "Duplicate component identity",
		Detail:   "A component with this identity is already registered. The server and client component registries have diverged.",
	},
	"E101": {
		Category: CategoryIntegrity,
		Message:  "Unknown component identity",
		Detail:   "A delta or child list referenced an identity that was never created. The server and client component registries have diverged.",
	},
	"E102": {
		Category: CategoryIntegrity,
		Message:  "Unparent called on a component with no parent",
		Detail:   "Only attached components can be unparented. This is a programmer error in the reconciler, not a recoverable condition.",
	},
	"E103": {
		Category:   CategoryIntegrity,
		Message:    "Component kind changed after creation",
		Detail:     "The kind discriminator is immutable once a component is created. A delta carried a different kind for an existing identity.",
		Suggestion: "Destroy the component on the server and create a new identity instead of mutating its kind.",
	},
	"E104": {
		Category: CategoryIntegrity,
		Message:  "Component used after destruction",
		Detail:   "A destroyed component was referenced by a delta or child list.",
	},

	// ============================================
	// Protocol Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryProtocol,
		Message:  "Invalid frame",
		Detail:   "The received frame could not be decoded. The protocol version may be mismatched.",
	},
	"E121": {
		Category: CategoryProtocol,
		Message:  "Frame payload too large",
		Detail:   "The frame payload exceeds the configured size limit.",
	},
	"E122": {
		Category: CategoryProtocol,
		Message:  "Delta missing component identity",
		Detail:   "Every delta message must carry the target component's identity.",
	},
	"E123": {
		Category:   CategoryProtocol,
		Message:    "Delta missing kind for new identity",
		Detail:     "The first delta for a new identity must carry the component's kind.",
		Suggestion: "Check that creation messages are not reordered behind update messages.",
	},
	"E124": {
		Category: CategoryProtocol,
		Message:  "Unknown widget kind",
		Detail:   "No widget implementation is registered for this kind.",
	},

	// ============================================
	// Transport Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryTransport,
		Message:  "WebSocket connection failed",
		Detail:   "Unable to establish a WebSocket connection to the application server.",
	},
	"E141": {
		Category: CategoryTransport,
		Message:  "Connection closed",
		Detail:   "The server closed the connection.",
	},

	// ============================================
	// Widget Errors (E150-E159)
	// ============================================

	"E150": {
		Category: CategoryWidget,
		Message:  "Widget delta application failed",
		Detail:   "A widget-specific delta handler returned an error. The failure is local to that widget.",
	},

	// ============================================
	// Config Errors (E160-E169)
	// ============================================

	"E160": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Detail:     "strand.json could not be parsed.",
		Suggestion: "Validate the file with a JSON linter.",
	},
	"E161": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
}

// Register adds a custom error template. Intended for applications layering
// their own codes on top of the built-in registry; built-in codes cannot be
// overridden.
func Register(code string, template ErrorTemplate) bool {
	if _, exists := registry[code]; exists {
		return false
	}
	registry[code] = template
	return true
}
