// SPDX-License-Identifier: MIT

package codec

// Context is the read-only snapshot of the root record's leading primitive
// fields. One is built per pass and shared by every nested decode or encode
// and every expression, where it is visible as _root.
type Context struct {
	ids    []string
	values []any
	vars   map[string]any
}

func newContext(rec *Record, k int) *Context {
	c := &Context{
		ids:    make([]string, k),
		values: make([]any, k),
		vars:   make(map[string]any, k),
	}
	for i := 0; i < k; i++ {
		id := rec.typ.Fields[i].ID
		c.ids[i] = id
		c.values[i] = rec.values[i]
		c.vars[id] = exprValue(rec.values[i])
	}
	return c
}

// Get returns the value of a context field.
func (c *Context) Get(id string) (any, bool) {
	for i, name := range c.ids {
		if name == id {
			return c.values[i], true
		}
	}
	return nil, false
}

// Len returns the number of context fields.
func (c *Context) Len() int { return len(c.ids) }

// Fields returns the context field ids in order.
func (c *Context) Fields() []string {
	return append([]string(nil), c.ids...)
}
