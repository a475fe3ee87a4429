package access

// Endpoint interfaces understood by the catalog. These mirror the visibility
// levels the identity service publishes for each service endpoint.
const (
	InterfacePublic   = "public"
	InterfaceInternal = "internal"
	InterfaceAdmin    = "admin"
)

// Endpoint is one addressable location of a catalog service.
type Endpoint struct {
	Region      string `json:"region,omitempty"`
	PublicURL   string `json:"public_url,omitempty"`
	InternalURL string `json:"internal_url,omitempty"`
	AdminURL    string `json:"admin_url,omitempty"`
}

// Service is a catalog entry: a named service type with its endpoints.
type Service struct {
	Type      string     `json:"type"`
	Name      string     `json:"name,omitempty"`
	Endpoints []Endpoint `json:"endpoints,omitempty"`
}

// Catalog is the full service catalog attached to an Access.
type Catalog []Service

// EndpointFilter narrows catalog endpoint resolution. All fields are
// optional; empty fields match anything. Interface defaults to public.
type EndpointFilter struct {
	ServiceType string
	ServiceName string
	Interface   string
	Region      string
}

// URL resolves an endpoint URL from the catalog. It is best effort: the
// first endpoint matching the filter wins, and ok is false when nothing
// matches. It never fabricates a URL.
func (c Catalog) URL(f EndpointFilter) (url string, ok bool) {
	iface := f.Interface
	if iface == "" {
		iface = InterfacePublic
	}

	for _, svc := range c {
		if f.ServiceType != "" && svc.Type != f.ServiceType {
			continue
		}
		if f.ServiceName != "" && svc.Name != f.ServiceName {
			continue
		}
		for _, ep := range svc.Endpoints {
			if f.Region != "" && ep.Region != f.Region {
				continue
			}
			var u string
			switch iface {
			case InterfaceAdmin:
				u = ep.AdminURL
			case InterfaceInternal:
				u = ep.InternalURL
			default:
				u = ep.PublicURL
			}
			if u != "" {
				return u, true
			}
		}
	}
	return "", false
}
