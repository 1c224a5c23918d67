package webhook

// Method is the HTTP method a webhook arrived with.
// Only GET and POST reach the normalizer; the router rejects everything else.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// Params is the raw provider parameter set for one request.
// Values are as delivered by the transport (form body or query string).
type Params map[string]string

// Get returns the value for name, or "" when absent.
func (p Params) Get(name string) string {
	return p[name]
}

// Has reports whether name is present and non-empty.
func (p Params) Has(name string) bool {
	return p[name] != ""
}

// Request is the transport-neutral view of an inbound webhook.
// The boundary layer builds it from whichever source applies to Method.
type Request struct {
	Method Method
	Params Params
}

// AnsweredBy returns the AMD outcome reported by the provider.
// AnsweredBy is preferred over AnsweringMachineDetection; "unknown" when neither is set.
func (p Params) AnsweredBy() string {
	if v := p.Get(FieldAnsweredBy); v != "" {
		return v
	}
	if v := p.Get(FieldAnsweringMachineDetection); v != "" {
		return v
	}
	return "unknown"
}
