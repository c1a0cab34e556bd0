package errors

// Code represents an error code
type Code string

// Validation codes. These are fatal to the current resource and abort the run.
const (
	CodeMissingProperty          Code = "MISSING_PROPERTY"            // Required property absent or blank
	CodeUnexpectedProperty       Code = "UNEXPECTED_PROPERTY"         // Property not allowed for the resource type
	CodeInvalidValue             Code = "INVALID_VALUE"               // Value outside its closed set
	CodeTypeConflict             Code = "TYPE_CONFLICT"               // Property combination not allowed for the type
	CodeContainerDetailsNotFound Code = "CONTAINER_DETAILS_NOT_FOUND" // Build cache consulted before population
	CodeDuplicateEntry           Code = "DUPLICATE_ENTRY"             // Write-once cache written twice
	CodeAmbiguousBinding         Code = "AMBIGUOUS_BINDING"           // More than one external binding for ingress
	CodeManifestInvalid          Code = "MANIFEST_INVALID"            // Manifest document malformed
)

// Operational codes. Surfaced from collaborators and never retried by the core.
const (
	CodeImageBuildFailed     Code = "IMAGE_BUILD_FAILED"    // Image build failed
	CodeImagePushFailed      Code = "IMAGE_PUSH_FAILED"     // Image push failed
	CodeKubernetesApiError   Code = "KUBERNETES_API_ERROR"  // kubectl / kustomize invocation failed
	CodeIoError              Code = "IO_ERROR"              // Input/output operation failed
	CodeToolNotFound         Code = "TOOL_NOT_FOUND"        // Required executable missing from PATH
	CodeRuntimeUnavailable   Code = "RUNTIME_UNAVAILABLE"   // Container builder installed but not answering
	CodeConfigurationInvalid Code = "CONFIGURATION_INVALID" // Configuration invalid
)

var validationCodes = map[Code]struct{}{
	CodeMissingProperty:          {},
	CodeUnexpectedProperty:       {},
	CodeInvalidValue:             {},
	CodeTypeConflict:             {},
	CodeContainerDetailsNotFound: {},
	CodeDuplicateEntry:           {},
	CodeAmbiguousBinding:         {},
	CodeManifestInvalid:          {},
}

// IsValidationCode reports whether the code belongs to the validation family.
func IsValidationCode(c Code) bool {
	_, ok := validationCodes[c]
	return ok
}
