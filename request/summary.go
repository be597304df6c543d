package request

// Summary is a serializable snapshot of a request view.
type Summary struct {
	Method        string              `json:"method" yaml:"method"`
	URI           string              `json:"uri" yaml:"uri"`
	Path          string              `json:"path" yaml:"path"`
	Proto         string              `json:"proto,omitempty" yaml:"proto,omitempty"`
	Host          string              `json:"host,omitempty" yaml:"host,omitempty"`
	RemoteAddress string              `json:"remoteAddress,omitempty" yaml:"remoteAddress,omitempty"`
	ContentType   string              `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	MediaType     string              `json:"mediaType" yaml:"mediaType"`
	MediaTypes    []string            `json:"mediaTypes" yaml:"mediaTypes"`
	Languages     []string            `json:"languages" yaml:"languages"`
	Charsets      []string            `json:"charsets" yaml:"charsets"`
	Encodings     []string            `json:"encodings" yaml:"encodings"`
	Headers       map[string][]string `json:"headers" yaml:"headers"`
	Cookies       map[string]string   `json:"cookies" yaml:"cookies"`
	Parameters    map[string][]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Describe takes a snapshot of r. Parameters are only included if r reports
// a configured parameter source through a HasParameters method, as Adapter
// does.
func Describe(r Request) Summary {
	s := Summary{
		Method:        r.Method(),
		URI:           r.URI(),
		Path:          r.Path(),
		Proto:         r.Proto(),
		Host:          r.Host(),
		RemoteAddress: r.RemoteAddress(),
		ContentType:   r.ContentType(),
		MediaType:     r.MediaType().String(),
		MediaTypes:    r.MediaTypes().Strings(),
		Charsets:      r.Charsets().Strings(),
		Encodings:     r.Encodings().Strings(),
		Headers:       make(map[string][]string, len(r.Headers())),
		Cookies:       r.Cookies().Values(),
	}
	for _, l := range r.Languages() {
		s.Languages = append(s.Languages, l.String())
	}
	for k, v := range r.Headers() {
		s.Headers[k] = append([]string(nil), v...)
	}
	if p, ok := r.(interface{ HasParameters() bool }); ok && p.HasParameters() {
		s.Parameters = r.Parameters()
	}
	return s
}
