package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Explain  string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Route Errors (W100-W199)
	// ============================================

	"W101": {
		Category: CategoryRoute,
		Message:  "Malformed route pattern",
		Explain:  "The route pattern could not be translated into a regular expression. Check for unbalanced parentheses or brackets.",
		DocURL:   "https://waypoint.vango.dev/errors/W101",
	},
	"W102": {
		Category: CategoryRoute,
		Message:  "Invalid router configuration",
		Explain:  "A configuration option has an invalid value or conflicts with the router's current state.",
		DocURL:   "https://waypoint.vango.dev/errors/W102",
	},
	"W103": {
		Category: CategoryRoute,
		Message:  "Invalid parameter pattern",
		Explain:  "Custom parameter patterns must compile and must not contain capturing groups; the router wraps them in exactly one group.",
		DocURL:   "https://waypoint.vango.dev/errors/W103",
	},
	"W104": {
		Category: CategoryRoute,
		Message:  "Invalid route context",
		Explain:  "A route map entry must hold either handlers or a nested route map, not both.",
		DocURL:   "https://waypoint.vango.dev/errors/W104",
	},
	"W105": {
		Category: CategoryRoute,
		Message:  "Unknown resource",
		Explain:  "A route map names a handler that is not present in the router's resources.",
		DocURL:   "https://waypoint.vango.dev/errors/W105",
	},

	// ============================================
	// Navigation Errors (W200-W299)
	// ============================================

	"W201": {
		Category: CategoryNavigation,
		Message:  "Invalid navigation path",
		Explain:  "Navigation paths must be relative, must not contain backslashes or NUL bytes, and must use valid percent escapes.",
		DocURL:   "https://waypoint.vango.dev/errors/W201",
	},
	"W202": {
		Category: CategoryNavigation,
		Message:  "Navigation source cannot push",
		Explain:  "Programmatic navigation requires a navigation source that implements Push.",
		DocURL:   "https://waypoint.vango.dev/errors/W202",
	},
	"W203": {
		Category: CategoryNavigation,
		Message:  "Router not initialised",
		Explain:  "The router has no navigation source attached. Call Init first.",
		DocURL:   "https://waypoint.vango.dev/errors/W203",
	},
	"W204": {
		Category: CategoryNavigation,
		Message:  "Navigation socket closed",
		Explain:  "The websocket carrying navigation events was closed by the client.",
		DocURL:   "https://waypoint.vango.dev/errors/W204",
	},

	// ============================================
	// Content Errors (W300-W399)
	// ============================================

	"W301": {
		Category: CategoryContent,
		Message:  "Content not found",
		Explain:  "The requested settings, category list or article does not exist in the content store.",
		DocURL:   "https://waypoint.vango.dev/errors/W301",
	},
	"W302": {
		Category: CategoryContent,
		Message:  "Malformed content",
		Explain:  "A content document could not be decoded.",
		DocURL:   "https://waypoint.vango.dev/errors/W302",
	},

	// ============================================
	// Config Errors (W400-W499)
	// ============================================

	"W401": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Explain:  "The configuration file could not be read or parsed.",
		DocURL:   "https://waypoint.vango.dev/errors/W401",
	},
	"W402": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Explain:  "A configuration value is out of range or inconsistent with another value.",
		DocURL:   "https://waypoint.vango.dev/errors/W402",
	},
	"W403": {
		Category: CategoryConfig,
		Message:  "Malformed route map",
		Explain:  "The route map file could not be decoded. Keys must be path fragments or method names, values must be resource names or nested maps.",
		DocURL:   "https://waypoint.vango.dev/errors/W403",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Explain returns the long explanation registered for a code.
func Explain(code string) string {
	return registry[code].Explain
}
