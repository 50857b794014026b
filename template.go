package onion

import "sync"

// Template holds application-wide default values for one kind of
// per-request object (context, request or response). Every per-request
// object looks up its own values first and falls back to the template.
type Template struct {
	mu     sync.RWMutex
	values map[any]any
}

func newTemplate() *Template {
	return &Template{values: make(map[any]any)}
}

// Set stores a default value visible to every subsequent request.
func (t *Template) Set(key, val any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[key] = val
}

// Delete removes a default value.
func (t *Template) Delete(key any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.values, key)
}

// Lookup returns the default value for key.
func (t *Template) Lookup(key any) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[key]
	return v, ok
}

// locals is the per-request layer on top of a Template.
type locals struct {
	tmpl   *Template
	values map[any]any
}

func (l *locals) lookup(key any) (any, bool) {
	if v, ok := l.values[key]; ok {
		return v, true
	}
	if l.tmpl == nil {
		return nil, false
	}
	return l.tmpl.Lookup(key)
}

func (l *locals) set(key, val any) {
	if l.values == nil {
		l.values = make(map[any]any)
	}
	l.values[key] = val
}
