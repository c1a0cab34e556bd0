package resources

import (
	"encoding/json"
)

// opaque keeps every field of a resource the compiler never looks into.
type opaque struct {
	Base
	Fields map[string]json.RawMessage `json:"-"`
}

func (o opaque) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(o.Fields)+1)
	for k, v := range o.Fields {
		out[k] = v
	}
	t, err := json.Marshal(o.Type)
	if err != nil {
		return nil, err
	}
	out["type"] = t
	return json.Marshal(out)
}

func (o *opaque) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if t, ok := fields["type"]; ok {
		if err := json.Unmarshal(t, &o.Type); err != nil {
			return err
		}
		delete(fields, "type")
	}
	if len(fields) == 0 {
		fields = nil
	}
	o.Fields = fields
	return nil
}

// BicepResource is an Azure Bicep module, passed through.
type BicepResource struct{ opaque }

// BicepV1Resource is a scoped Azure Bicep module, passed through.
type BicepV1Resource struct{ opaque }

// CloudFormationStackResource is an AWS CloudFormation stack, passed through.
type CloudFormationStackResource struct{ opaque }

// CloudFormationTemplateResource is an AWS CloudFormation template, passed through.
type CloudFormationTemplateResource struct{ opaque }

func (r *BicepResource) ConnectionStringValue() string   { return r.stringField("connectionString") }
func (r *BicepV1Resource) ConnectionStringValue() string { return r.stringField("connectionString") }

func (o *opaque) stringField(name string) string {
	raw, ok := o.Fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ExtensionResource is a resource whose type is not recognised. Raw holds the
// manifest node exactly as it was read.
type ExtensionResource struct {
	Base
	Raw json.RawMessage `json:"-"`
}

func (e ExtensionResource) MarshalJSON() ([]byte, error) {
	if len(e.Raw) == 0 {
		return []byte("{}"), nil
	}
	return e.Raw, nil
}

func (e *ExtensionResource) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	e.Type = probe.Type
	e.Raw = append(json.RawMessage(nil), data...)
	return nil
}
