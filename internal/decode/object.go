package decode

// Object is a JSON object that remembers the order in which keys first
// appeared.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

func (o *Object) Len() int { return len(o.keys) }

// Keys returns the keys in first-occurrence order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Set stores v under key. A key that already exists keeps its position and
// loses its previous value.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Add stores v under key, merging with any earlier occurrence instead of
// replacing it.
func (o *Object) Add(key string, v Value) {
	prev, ok := o.vals[key]
	if !ok {
		o.keys = append(o.keys, key)
		o.vals[key] = v
		return
	}
	o.vals[key] = merge(prev, v)
}

// Range calls fn for every entry in key order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	for _, k := range o.keys {
		if !fn(k, o.vals[k]) {
			return
		}
	}
}

// Interface converts the object into a map[string]any. Key order is lost.
func (o *Object) Interface() map[string]any {
	out := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		out[k] = o.vals[k].Interface()
	}
	return out
}
