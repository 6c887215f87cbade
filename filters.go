package dust

import (
	"encoding/json"

	"github.com/dustgo/dust/value"
)

// FilterUnescape is the reserved filter name that turns off the default
// escaping of a reference.
const FilterUnescape = "s"

func registerDefaultFilters(e *Engine) {
	e.AddFilter("h", FilterHTML)
	e.AddFilter("j", FilterJS)
	e.AddFilter("u", FilterURI)
	e.AddFilter("uc", FilterURIComponent)
	e.AddFilter("js", FilterJSONStringify)
	e.AddFilter("jp", FilterJSONParse)
}

// FilterHTML escapes HTML. The result is a safe string, so it is not
// escaped a second time.
func FilterHTML(v value.Value, _ *Context) (value.Value, error) {
	if v.IsSafe() {
		return v, nil
	}
	return value.FromSafeString(EscapeHTML(v.String())), nil
}

// FilterJS escapes for a JavaScript string literal.
func FilterJS(v value.Value, _ *Context) (value.Value, error) {
	if _, ok := v.AsString(); !ok {
		return v, nil
	}
	return value.FromString(EscapeJS(v.String())), nil
}

// FilterURI applies EncodeURI.
func FilterURI(v value.Value, _ *Context) (value.Value, error) {
	return value.FromString(EncodeURI(v.String())), nil
}

// FilterURIComponent applies EncodeURIComponent.
func FilterURIComponent(v value.Value, _ *Context) (value.Value, error) {
	return value.FromString(EncodeURIComponent(v.String())), nil
}

// FilterJSONStringify encodes the value as JSON.
func FilterJSONStringify(v value.Value, _ *Context) (value.Value, error) {
	out, err := EscapeJSON(value.ToNative(v))
	if err != nil {
		return value.Undefined(), err
	}
	return value.FromString(out), nil
}

// FilterJSONParse decodes a JSON string into a value.
func FilterJSONParse(v value.Value, _ *Context) (value.Value, error) {
	s, ok := v.AsString()
	if !ok {
		return v, nil
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return value.Undefined(), err
	}
	return value.FromAny(out), nil
}

// applyFilters runs the named filters in order, then the auto filter
// unless an "s" filter was seen. Unknown names are logged and skipped.
func (e *Engine) applyFilters(v value.Value, ctx *Context, auto string, filters []string) (value.Value, error) {
	for _, name := range filters {
		if name == "" {
			continue
		}
		if name == FilterUnescape {
			auto = ""
			continue
		}
		f, ok := e.filter(name)
		if !ok {
			ctx.logger().Warn("Invalid filter",
				"filter", name,
				"template", ctx.TemplateName())
			continue
		}
		out, err := f(v, ctx)
		if err != nil {
			ctx.logger().Error("Error in filter",
				"filter", name,
				"template", ctx.TemplateName(),
				"error", err)
			return value.Undefined(), attachErrorInfo(WrapError(ErrFilter, name, err), ctx)
		}
		v = out
	}
	if auto == "" {
		return v, nil
	}
	f, ok := e.filter(auto)
	if !ok {
		return v, nil
	}
	out, err := f(v, ctx)
	if err != nil {
		return value.Undefined(), attachErrorInfo(WrapError(ErrFilter, auto, err), ctx)
	}
	return out, nil
}
