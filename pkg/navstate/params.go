package navstate

import (
	"net/url"
	"strings"
)

// Param is a single query key/value pair.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered, multi-valued list of query parameters.
// Unlike url.Values it keeps the order the pairs were added in, so a parsed
// query string encodes back to the same text.
type Params []Param

// ParseQuery parses a raw query string. A leading '?' is ignored.
func ParseQuery(raw string) (Params, error) {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return nil, nil
	}

	var p Params
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}
		p = append(p, Param{Key: key, Value: value})
	}
	return p, nil
}

// Get returns the first value for key, or "".
func (p Params) Get(key string) string {
	v, _ := p.Lookup(key)
	return v
}

// Lookup returns the first value for key and whether it was present.
func (p Params) Lookup(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// GetAll returns every value for key in order.
func (p Params) GetAll(key string) []string {
	var out []string
	for _, kv := range p {
		if kv.Key == key {
			out = append(out, kv.Value)
		}
	}
	return out
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p.Lookup(key)
	return ok
}

// Add appends a pair.
func (p *Params) Add(key, value string) {
	*p = append(*p, Param{Key: key, Value: value})
}

// Set replaces every value of key with value, keeping the position of the
// first occurrence. A missing key is appended.
func (p *Params) Set(key, value string) {
	out := (*p)[:0:0]
	found := false
	for _, kv := range *p {
		if kv.Key != key {
			out = append(out, kv)
			continue
		}
		if !found {
			out = append(out, Param{Key: key, Value: value})
			found = true
		}
	}
	if !found {
		out = append(out, Param{Key: key, Value: value})
	}
	*p = out
}

// Del removes every value of the given keys.
func (p *Params) Del(keys ...string) {
	*p = p.Without(keys...)
}

// Without returns a copy of p with the given keys removed.
func (p Params) Without(keys ...string) Params {
	var out Params
	for _, kv := range p {
		if !containsKey(keys, kv.Key) {
			out = append(out, kv)
		}
	}
	return out
}

// Clone returns a copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// Encode renders p as "k=v&k=v" without a leading '?'.
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// Equal reports whether p and o hold the same pairs in the same order.
func (p Params) Equal(o Params) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Values converts p to url.Values. Order is lost.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for _, kv := range p {
		v.Add(kv.Key, kv.Value)
	}
	return v
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
