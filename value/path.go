package value

import (
	"regexp"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// bracketIndex matches a `[N]` array-index segment so it can be rewritten to
// gjson/sjson's dot-numeric path syntax.
var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// toGJSONPath translates the property tree's JSON-pointer-like syntax
// (`a.b[2].c`) into gjson/sjson's native dotted-numeric syntax (`a.b.2.c`).
func toGJSONPath(path string) string {
	return bracketIndex.ReplaceAllString(path, ".$1")
}

// Get resolves path against v and returns the addressed sub-value. Fails
// with PathNotFound if no such path exists.
func (v *Value) Get(path string) (*Value, error) {
	data, err := v.ToJSON()
	if err != nil {
		return nil, err
	}
	res := gjson.GetBytes(data, toGJSONPath(path))
	if !res.Exists() {
		return nil, newErr(PathNotFound, "no value at path %q", path)
	}
	out, err := FromJSON([]byte(res.Raw))
	if err != nil {
		return nil, newErr(InvalidJSON, "path %q: %v", path, err)
	}
	return out, nil
}

// Set writes val at path, creating intermediate objects/arrays as needed,
// and rebuilds v in place from the result.
func (v *Value) Set(path string, val *Value) error {
	data, err := v.ToJSON()
	if err != nil {
		return err
	}
	raw, err := val.ToJSON()
	if err != nil {
		return err
	}
	merged, err := sjson.SetRawBytes(data, toGJSONPath(path), raw)
	if err != nil {
		return newErr(PathNotFound, "path %q: %v", path, err)
	}
	out, err := FromJSON(merged)
	if err != nil {
		return newErr(InvalidJSON, "path %q: %v", path, err)
	}
	*v = *out
	return nil
}
