package firebase

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value is the Firestore REST representation of a field value. Exactly one
// member is set.
type Value struct {
	StringValue    *string     `json:"stringValue,omitempty"`
	IntegerValue   *string     `json:"integerValue,omitempty"` // int64 carried as a string
	DoubleValue    *float64    `json:"doubleValue,omitempty"`
	BooleanValue   *bool       `json:"booleanValue,omitempty"`
	TimestampValue *string     `json:"timestampValue,omitempty"` // RFC 3339
	NullValue      *string     `json:"nullValue,omitempty"`      // "NULL_VALUE"
	ArrayValue     *ArrayValue `json:"arrayValue,omitempty"`
	MapValue       *MapValue   `json:"mapValue,omitempty"`
}

type ArrayValue struct {
	Values []Value `json:"values,omitempty"`
}

type MapValue struct {
	Fields map[string]Value `json:"fields,omitempty"`
}

// Document is a Firestore REST document
type Document struct {
	Name   string           `json:"name,omitempty"`
	Fields map[string]Value `json:"fields,omitempty"`
}

// ListResponse is the shape of a collection list call
type ListResponse struct {
	Documents     []Document `json:"documents,omitempty"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

// EncodeValue converts a Go value to its Firestore representation. Unknown
// types fall back to their string form.
func EncodeValue(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		nv := "NULL_VALUE"
		return Value{NullValue: &nv}
	case string:
		return Value{StringValue: &t}
	case bool:
		return Value{BooleanValue: &t}
	case int:
		s := strconv.FormatInt(int64(t), 10)
		return Value{IntegerValue: &s}
	case int64:
		s := strconv.FormatInt(t, 10)
		return Value{IntegerValue: &s}
	case float64:
		return Value{DoubleValue: &t}
	case time.Time:
		s := t.UTC().Format(time.RFC3339Nano)
		return Value{TimestampValue: &s}
	case []string:
		values := make([]Value, len(t))
		for i, e := range t {
			values[i] = EncodeValue(e)
		}
		return Value{ArrayValue: &ArrayValue{Values: values}}
	case []interface{}:
		values := make([]Value, len(t))
		for i, e := range t {
			values[i] = EncodeValue(e)
		}
		return Value{ArrayValue: &ArrayValue{Values: values}}
	case map[string]interface{}:
		return Value{MapValue: &MapValue{Fields: EncodeFields(t)}}
	default:
		s := fmt.Sprintf("%v", v)
		return Value{StringValue: &s}
	}
}

// DecodeValue converts a Firestore value back to a Go value. Integers come
// back as int64, timestamps as time.Time.
func DecodeValue(v Value) interface{} {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return *v.IntegerValue
		}
		return n
	case v.DoubleValue != nil:
		return *v.DoubleValue
	case v.BooleanValue != nil:
		return *v.BooleanValue
	case v.TimestampValue != nil:
		t, err := time.Parse(time.RFC3339Nano, *v.TimestampValue)
		if err != nil {
			return *v.TimestampValue
		}
		return t
	case v.ArrayValue != nil:
		out := make([]interface{}, len(v.ArrayValue.Values))
		for i, e := range v.ArrayValue.Values {
			out[i] = DecodeValue(e)
		}
		return out
	case v.MapValue != nil:
		return DecodeFields(v.MapValue.Fields)
	default:
		return nil
	}
}

// EncodeFields converts a field map to Firestore representation
func EncodeFields(fields map[string]interface{}) map[string]Value {
	out := make(map[string]Value, len(fields))
	for k, v := range fields {
		out[k] = EncodeValue(v)
	}
	return out
}

// DecodeFields converts Firestore fields back to a plain map
func DecodeFields(fields map[string]Value) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = DecodeValue(v)
	}
	return out
}

// ExtractDocumentPath strips the projects/.../documents/ prefix from a full
// resource name, leaving the path used for later patch/delete calls.
func ExtractDocumentPath(name string) string {
	if i := strings.Index(name, "/documents/"); i >= 0 {
		return name[i+len("/documents/"):]
	}
	return name
}
