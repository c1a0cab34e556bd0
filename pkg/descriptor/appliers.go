package descriptor

import (
	"fmt"
	"maps"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/secrets"
	"github.com/samber/lo"
)

// ApplyAnnotations merges per-resource annotation overrides; overrides win.
func (d *Descriptor) ApplyAnnotations(overrides map[string]string) *Descriptor {
	c := d.clone()
	if c.Annotations == nil {
		c.Annotations = map[string]string{}
	}
	maps.Copy(c.Annotations, overrides)
	return c
}

// ApplyIngress copies a resolved ingress definition onto the descriptor. With
// ingress enabled, no explicit port and more than one external binding there is
// no way to tell which binding the ingress should route to.
func (d *Descriptor) ApplyIngress(in Ingress) (*Descriptor, error) {
	if in.Enabled && in.PortNumber == 0 {
		if exposed := d.ExposedPorts(); len(exposed) > 1 {
			names := lo.Map(exposed, func(p Port, _ int) string { return p.Name })
			return nil, errors.Validation(errors.CodeAmbiguousBinding, d.Name, "ingress",
				fmt.Sprintf("matches %d external bindings %v, set an explicit ingress port", len(exposed), names))
		}
	}
	c := d.clone()
	c.Ingress = in
	if c.Ingress.Enabled && c.Ingress.Path == "" {
		c.Ingress.Path = "/"
	}
	if c.Ingress.Enabled && c.Ingress.Controller == "" {
		c.Ingress.Controller = IngressNginx
	}
	return c, nil
}

// ApplySecurityContext copies pod and container security settings.
func (d *Descriptor) ApplySecurityContext(sc *SecurityContext) *Descriptor {
	c := d.clone()
	if sc != nil {
		copied := *sc
		c.SecurityContext = &copied
	}
	return c
}

// SetSecretsFromSecretState resolves every secret key against the store. Keys
// the store does not hold are left as they are, so unresolved placeholders stay
// empty and are dropped at emission.
func (d *Descriptor) SetSecretsFromSecretState(store secrets.Store) *Descriptor {
	c := d.clone()
	if store == nil || !store.ResourceExists(d.Name) {
		return c
	}
	for key := range c.Secrets {
		if store.SecretExists(d.Name, key) {
			c.Secrets[key] = store.GetSecret(d.Name, key)
		}
	}
	return c
}
