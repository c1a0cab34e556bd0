package resources

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/samber/lo"
)

// Decode turns one manifest node into its concrete variant. The node's "type"
// picks the variant; nodes without a type, or with a type this package does not
// know, come back as an *ExtensionResource holding the raw JSON.
func Decode(name string, raw json.RawMessage) (Resource, error) {
	members, err := DecodeOrderedObject(raw)
	if err != nil {
		return nil, errors.Validation(errors.CodeManifestInvalid, name, "", err.Error())
	}

	resourceType, err := typeOf(name, members)
	if err != nil {
		return nil, err
	}

	if resourceType == TypeContainer && hasMember(members, "build") {
		return nil, errors.Validation(errors.CodeTypeConflict, name, "build",
			"is not supported by container.v0, use container.v1 to build from source")
	}

	if IsKnownType(resourceType) {
		for _, m := range members {
			if !isAllowed(resourceType, m.Key) {
				return nil, errors.Unexpected(name, m.Key)
			}
		}
	}

	r := newResource(resourceType)
	if err := json.Unmarshal(raw, r); err != nil {
		return nil, decodeError(name, err)
	}
	r.SetName(name)

	if err := validateDecoded(name, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Encode serializes a resource back into its manifest form.
func Encode(r Resource) (json.RawMessage, error) {
	return json.Marshal(r)
}

func typeOf(name string, members []Member) (string, error) {
	for _, m := range members {
		if m.Key != "type" {
			continue
		}
		var t string
		if err := json.Unmarshal(m.Value, &t); err != nil {
			return "", errors.Validation(errors.CodeInvalidValue, name, "type", "must be a string")
		}
		return t, nil
	}
	return "", nil
}

func hasMember(members []Member, key string) bool {
	return lo.ContainsBy(members, func(m Member) bool { return m.Key == key })
}

func decodeError(name string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) && typeErr.Field != "" {
		return errors.Validation(errors.CodeInvalidValue, name, typeErr.Field,
			fmt.Sprintf("must be of type %s, got %s", typeErr.Type, typeErr.Value))
	}
	return errors.Validation(errors.CodeManifestInvalid, name, "", err.Error())
}

func invalidValue(resource, field string, err error) error {
	return errors.Validation(errors.CodeInvalidValue, resource, field, err.Error())
}

// validateDecoded checks the closed enumerations carried by a freshly decoded
// resource. Required-property checks belong to the processors.
func validateDecoded(name string, r Resource) error {
	if w, ok := r.(Workload); ok {
		if err := w.BindingList().validate(name); err != nil {
			return err
		}
	}
	if c, ok := r.(*ContainerV1Resource); ok && c.Build != nil {
		for key, secret := range c.Build.Secrets {
			switch secret.Type {
			case BuildSecretEnv, BuildSecretFile:
			default:
				return invalidValue(name, "build.secrets."+key+".type",
					fmt.Errorf("invalid value '%s', expected one of %s, %s", secret.Type, BuildSecretEnv, BuildSecretFile))
			}
		}
	}
	return nil
}
