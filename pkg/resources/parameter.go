package resources

// ParameterInputTypeString is the only supported parameter input type.
const ParameterInputTypeString = "string"

// GenerateOptions asks for a value to be generated when none is supplied.
type GenerateOptions struct {
	MinLength  int   `json:"minLength,omitempty"`
	Lower      *bool `json:"lower,omitempty"`
	Upper      *bool `json:"upper,omitempty"`
	Numeric    *bool `json:"numeric,omitempty"`
	Special    *bool `json:"special,omitempty"`
	MinLower   int   `json:"minLower,omitempty"`
	MinUpper   int   `json:"minUpper,omitempty"`
	MinNumeric int   `json:"minNumeric,omitempty"`
	MinSpecial int   `json:"minSpecial,omitempty"`
}

// ParameterDefault is either a literal value or generation options.
type ParameterDefault struct {
	Value    *string          `json:"value,omitempty"`
	Generate *GenerateOptions `json:"generate,omitempty"`
}

// ParameterInput is one input of a parameter.
type ParameterInput struct {
	Type    string            `json:"type,omitempty"`
	Secret  bool              `json:"secret,omitempty"`
	Default *ParameterDefault `json:"default,omitempty"`
}

// ParameterResource is a user-supplied or generated value.
type ParameterResource struct {
	Base
	Value  string                    `json:"value,omitempty"`
	Inputs map[string]ParameterInput `json:"inputs,omitempty"`
}

// IsSecret reports whether any input of the parameter is secret.
func (r *ParameterResource) IsSecret() bool {
	for _, in := range r.Inputs {
		if in.Secret {
			return true
		}
	}
	return false
}

// ValueResource holds literal values, typically connection strings.
type ValueResource struct {
	Base
	ConnectionString string            `json:"connectionString,omitempty"`
	Values           map[string]string `json:"values,omitempty"`
}

func (r *ValueResource) ConnectionStringValue() string { return r.ConnectionString }
