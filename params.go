package eventcore

// Params is the typed key/value parameter container used at configuration
// and callback boundaries (listener config, openConnection arguments, the
// first per-connection callback's metadata). spec.md treats this
// container as an opaque external collaborator — the key/value parameter
// store proper belongs to a different layer of the stack — so this is
// deliberately a thin wrapper over map[string]any, not a namespaced,
// qualified-name system.
type Params map[string]any

// NewParams builds a [Params] from the given key/value pairs, for
// concise call sites such as NewParams("hostname", "localhost", "port",
// uint16(4840)). An odd number of args or a non-string key panics, since
// this only ever runs on a literal argument list.
func NewParams(kv ...any) Params {
	if len(kv)%2 != 0 {
		panic("eventcore: NewParams requires an even number of arguments")
	}
	p := make(Params, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("eventcore: NewParams keys must be strings")
		}
		p[key] = kv[i+1]
	}
	return p
}

// String returns the string value for key, if present and of that type.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StringSlice returns the string-slice value for key. A lone string is
// also accepted and returned as a single-element slice, matching the
// "string or string[]" convention used by listen-hostnames.
func (p Params) StringSlice(key string) ([]string, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	switch t := v.(type) {
	case []string:
		return t, true
	case string:
		return []string{t}, true
	default:
		return nil, false
	}
}

// Uint16 returns the uint16 value for key, if present and of that type.
func (p Params) Uint16(key string) (uint16, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	u, ok := v.(uint16)
	return u, ok
}
