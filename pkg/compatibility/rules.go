package compatibility

type ruleDef struct {
	compatible bool
	bump       bool
	message    string
	suggestion string
}

// rules maps every leaf rule to its verdict. Only index moves of modules and
// calls can route an already encoded call to the wrong target, so only those
// require a dispatch version bump. Signature changes break callers but fail
// to decode instead of mis-routing.
var rules = map[string]ruleDef{
	"MODULE_ADDED": {compatible: true, message: "Module added"},
	"MODULE_REMOVED": {
		message:    "Module removed",
		suggestion: "Keep the module or coordinate the removal with every client",
	},
	"MODULE_INDEX_CHANGED": {
		bump:       true,
		message:    "Module index changed",
		suggestion: "Bump transaction_version: encoded calls route by module index",
	},
	"MODULE_NAME_CHANGED": {compatible: true, message: "Module renamed"},

	"CALL_ADDED": {compatible: true, message: "Call added"},
	"CALL_REMOVED": {
		message:    "Call removed",
		suggestion: "Deprecate the call before removing it",
	},
	"CALL_INDEX_CHANGED": {
		bump:       true,
		message:    "Call index changed",
		suggestion: "Bump transaction_version: encoded calls route by call index",
	},
	"CALL_NAME_CHANGED":  {compatible: true, message: "Call renamed"},
	"CALL_ARG_ADDED":     {message: "Call argument added", suggestion: "Add a new call instead of extending the signature"},
	"CALL_ARG_REMOVED":   {message: "Call argument removed", suggestion: "Add a new call instead of shrinking the signature"},
	"CALL_ARG_RENAMED":   {compatible: true, message: "Call argument renamed"},
	"CALL_ARG_TYPE_CHANGED": {
		message:    "Call argument type changed",
		suggestion: "Clients must re-encode with the new type",
	},

	"EVENT_ADDED":   {compatible: true, message: "Event added"},
	"EVENT_REMOVED": {message: "Event removed", suggestion: "Indexers matching on this event must be updated"},
	"EVENT_INDEX_CHANGED": {
		message:    "Event index changed",
		suggestion: "Event decoders key on the index and must be regenerated",
	},
	"EVENT_NAME_CHANGED":     {compatible: true, message: "Event renamed"},
	"EVENT_ARG_ADDED":        {message: "Event field added", suggestion: "Event decoders must be regenerated"},
	"EVENT_ARG_REMOVED":      {message: "Event field removed", suggestion: "Event decoders must be regenerated"},
	"EVENT_ARG_RENAMED":      {compatible: true, message: "Event field renamed"},
	"EVENT_ARG_TYPE_CHANGED": {message: "Event field type changed", suggestion: "Event decoders must be regenerated"},

	"ERROR_ADDED":   {compatible: true, message: "Error added"},
	"ERROR_REMOVED": {message: "Error removed", suggestion: "Clients matching on this error must be updated"},
	"ERROR_INDEX_CHANGED": {
		message:    "Error index changed",
		suggestion: "Error decoders key on the index and must be regenerated",
	},
	"ERROR_NAME_CHANGED": {compatible: true, message: "Error renamed"},

	"CONSTANT_ADDED":         {compatible: true, message: "Constant added"},
	"CONSTANT_REMOVED":       {message: "Constant removed", suggestion: "Clients reading this constant must be updated"},
	"CONSTANT_VALUE_CHANGED": {compatible: true, message: "Constant value changed"},
	"CONSTANT_TYPE_CHANGED":  {message: "Constant type changed", suggestion: "Clients decoding this constant must be updated"},

	"STORAGE_ADDED":           {compatible: true, message: "Storage entry added"},
	"STORAGE_REMOVED":         {message: "Storage entry removed", suggestion: "Add a migration and update clients reading this entry"},
	"STORAGE_DEFAULT_CHANGED": {compatible: true, message: "Storage default changed"},
	"STORAGE_MODIFIER_CHANGED": {
		message:    "Storage modifier changed",
		suggestion: "Clients must handle the new optional/default semantics",
	},
}
