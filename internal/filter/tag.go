// Package filter implements the tag model and the filters a trace context
// uses to suppress or pass tagged messages.
package filter

import (
	"fmt"
	"strings"
)

// Tag is a single key/value annotation supplied at a trace call site.
type Tag struct {
	Key   string
	Value string
}

// Tags is the ordered set of tags attached to one message.
type Tags []Tag

// T builds a Tags from alternating key/value strings. A trailing key with no
// value gets the empty value.
func T(kv ...string) Tags {
	tags := make(Tags, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		tag := Tag{Key: kv[i]}
		if i+1 < len(kv) {
			tag.Value = kv[i+1]
		}
		tags = append(tags, tag)
	}
	return tags
}

// Add returns tags extended with key=value.
func (t Tags) Add(key, value string) Tags {
	return append(t, Tag{Key: key, Value: value})
}

// Addf returns tags extended with key set to the formatted value.
func (t Tags) Addf(key, format string, args ...any) Tags {
	return append(t, Tag{Key: key, Value: fmt.Sprintf(format, args...)})
}

// Lookup returns the value of the first tag with the given key.
func (t Tags) Lookup(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// String renders tags as {k=v,k=v}.
func (t Tags) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, tag := range t {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(tag.Key)
		sb.WriteByte('=')
		sb.WriteString(tag.Value)
	}
	sb.WriteByte('}')
	return sb.String()
}

// identical reports whether a and b hold the same key/value pairs,
// ignoring order.
func identical(a, b []Tag) bool {
	return subset(a, b) && subset(b, a)
}

func subset(a, b []Tag) bool {
	for _, x := range a {
		found := false
		for _, y := range b {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
