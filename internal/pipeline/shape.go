package pipeline

import "github.com/tidwall/gjson"

// NormalizeShape locates the list of item records inside a parsed document.
// Resolution order:
//  1. object with expectedKey mapped to an array
//  2. object with any array-valued entry (first in document order)
//  3. the document itself when it is an array
//  4. empty
func NormalizeShape(doc gjson.Result, expectedKey string) []gjson.Result {
	switch {
	case doc.IsObject():
		var expected, first gjson.Result
		doc.ForEach(func(key, value gjson.Result) bool {
			if !value.IsArray() {
				return true
			}
			if !first.Exists() {
				first = value
			}
			if key.Str == expectedKey {
				expected = value
				return false
			}
			return true
		})

		if expected.Exists() {
			return expected.Array()
		}
		if first.Exists() {
			return first.Array()
		}
	case doc.IsArray():
		return doc.Array()
	}
	return []gjson.Result{}
}
