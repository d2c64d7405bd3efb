package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Navigation Errors (N001-N099)
	// ============================================

	"N001": {
		Category: CategoryNavigation,
		Message:  "Restoration failed",
		Detail:   "The page could not be brought back to the requested navigation state.",
	},
	"N002": {
		Category:   CategoryValidation,
		Message:    "Invalid navigation state",
		Detail:     "The URL carries a discriminator whose parameters are missing or malformed.",
		Suggestion: "Check the query parameters required by the state type.",
	},
	"N010": {
		Category:   CategoryNavigation,
		Message:    "Element not found",
		Detail:     "A tab, modal or collapsible referenced by the navigation state does not exist in the layout.",
		Suggestion: "Make sure the layout declares the element id used in the URL.",
	},
	"N011": {
		Category: CategoryNavigation,
		Message:  "Modal not found",
		Detail:   "The modal id referenced by the navigation state does not exist in the layout.",
	},
	"N020": {
		Category:   CategoryNavigation,
		Message:    "Transition did not settle",
		Detail:     "A tab, modal or collapse transition did not report completion before the settle timeout.",
		Suggestion: "Raise navigation.settleTimeout or check that the view emits transition events.",
	},
	"N030": {
		Category: CategoryNavigation,
		Message:  "Section store unavailable",
		Detail:   "The per-section state cache could not be read or written.",
	},

	// ============================================
	// Network Errors (N100-N119)
	// ============================================

	"N101": {
		Category:   CategoryNetwork,
		Message:    "Network request failed",
		Detail:     "A data load did not reach the API.",
		Suggestion: "Check the connection and retry.",
	},
	"N102": {
		Category:   CategoryNetwork,
		Message:    "Authentication required",
		Detail:     "The API rejected the request with 401 Unauthorized.",
		Suggestion: "Sign in again and retry the navigation.",
	},
	"N103": {
		Category: CategoryNetwork,
		Message:  "Unexpected API response",
		Detail:   "The API answered with a status other than 200 OK.",
	},

	// ============================================
	// Config Errors (N120-N139)
	// ============================================

	"N120": {
		Category: CategoryConfig,
		Message:  "Invalid ladderpulse.json",
		Detail:   "The ladderpulse.json configuration file is malformed.",
	},
	"N121": {
		Category: CategoryConfig,
		Message:  "Missing required configuration",
		Detail:   "A required configuration value is not set.",
	},
	"N122": {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "The configured port number is invalid.",
	},
	"N123": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "A duration setting could not be parsed. Use Go duration syntax such as \"5s\".",
	},

	// ============================================
	// CLI Errors (N140-N159)
	// ============================================

	"N140": {
		Category: CategoryCLI,
		Message:  "Layout not found",
		Detail:   "The layout file passed to the command does not exist or cannot be parsed.",
	},
	"N141": {
		Category: CategoryCLI,
		Message:  "Config not found",
		Detail:   "No ladderpulse.json was found in the given directory.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
