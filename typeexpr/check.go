package typeexpr

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CheckError describes why a value failed to match a type expression.
// Path addresses the failing element relative to the checked value,
// e.g. "[1].k" for key "k" of the second list element. More counts
// additional failures found beyond the reported one.
type CheckError struct {
	Path string
	Msg  string
	More int
}

func (e *CheckError) Error() string {
	msg := e.Msg
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	if e.More > 0 {
		msg = fmt.Sprintf("%s (and %d more)", msg, e.More)
	}
	return msg
}

// Validate parses expr and checks value against it. Parse failures are
// returned as *ParseError; the boolean reports whether value matched.
func Validate(value any, expr string) (bool, error) {
	parsed, err := Parse(expr)
	if err != nil {
		return false, err
	}
	if err := parsed.Check(value); err != nil {
		return false, err
	}
	return true, nil
}

// Check validates a value against the expression. A nil return means
// the value matches; otherwise the error is a *CheckError.
func (e *Expr) Check(value any) error {
	switch e.Kind {
	case KindAny:
		return nil
	case KindNone:
		if isNil(value) {
			return nil
		}
		return &CheckError{Msg: fmt.Sprintf("expected null, got %s", kindOf(value))}
	case KindString:
		return e.checkString(value)
	case KindInt:
		if isInt(value) {
			return nil
		}
		return &CheckError{Msg: fmt.Sprintf("expected integer, got %s", kindOf(value))}
	case KindFloat:
		// Integers are acceptable wherever a number is expected.
		if isInt(value) || isFloat(value) {
			return nil
		}
		return &CheckError{Msg: fmt.Sprintf("expected number, got %s", kindOf(value))}
	case KindBool:
		if _, ok := value.(bool); ok {
			return nil
		}
		return &CheckError{Msg: fmt.Sprintf("expected boolean, got %s", kindOf(value))}
	case KindDatetime:
		return checkDatetime(value)
	case KindDict:
		if isNil(value) || !isMap(value) {
			return &CheckError{Msg: fmt.Sprintf("expected mapping, got %s", kindOf(value))}
		}
		return nil
	case KindList:
		return e.checkList(value)
	case KindMap:
		return e.checkMap(value)
	case KindUnion:
		return e.checkUnion(value)
	default:
		return &CheckError{Msg: fmt.Sprintf("unsupported type %q", e.Kind)}
	}
}

func (e *Expr) checkString(value any) error {
	s, ok := value.(string)
	if !ok {
		return &CheckError{Msg: fmt.Sprintf("expected string, got %s", kindOf(value))}
	}
	switch e.Format {
	case FormatUUID:
		if _, err := uuid.Parse(s); err != nil {
			return &CheckError{Msg: fmt.Sprintf("%q is not a valid UUID", s)}
		}
	case FormatDateTime:
		if !parseableDatetime(s) {
			return &CheckError{Msg: fmt.Sprintf("%q is not a valid date-time", s)}
		}
	}
	return nil
}

func (e *Expr) checkList(value any) error {
	if isNil(value) {
		return &CheckError{Msg: "expected list, got null"}
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return &CheckError{Msg: fmt.Sprintf("expected list, got %s", kindOf(value))}
	}

	// Collect every failing element; report the first plus the count.
	var first *CheckError
	failures := 0
	for i := 0; i < rv.Len(); i++ {
		if err := e.Elem.Check(rv.Index(i).Interface()); err != nil {
			failures++
			if first == nil {
				first = nested(fmt.Sprintf("[%d]", i), err)
			}
		}
	}
	if first != nil {
		first.More += failures - 1
		return first
	}
	return nil
}

func (e *Expr) checkMap(value any) error {
	if isNil(value) {
		return &CheckError{Msg: "expected mapping, got null"}
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return &CheckError{Msg: fmt.Sprintf("expected mapping, got %s", kindOf(value))}
	}

	var first *CheckError
	failures := 0
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().Interface()
		if err := e.Key.Check(k); err != nil {
			failures++
			if first == nil {
				first = &CheckError{Path: fmt.Sprintf("%v", k), Msg: fmt.Sprintf("invalid key: %s", checkMsg(err))}
			}
			continue
		}
		if err := e.Value.Check(iter.Value().Interface()); err != nil {
			failures++
			if first == nil {
				first = nested(fmt.Sprintf("%v", k), err)
			}
		}
	}
	if first != nil {
		first.More += failures - 1
		return first
	}
	return nil
}

func (e *Expr) checkUnion(value any) error {
	for _, arg := range e.Args {
		if arg.Check(value) == nil {
			return nil
		}
	}
	names := make([]string, len(e.Args))
	for i, arg := range e.Args {
		names[i] = arg.String()
	}
	return &CheckError{Msg: fmt.Sprintf("value of kind %s matched none of %s", kindOf(value), strings.Join(names, ", "))}
}

func checkDatetime(value any) error {
	switch v := value.(type) {
	case time.Time:
		return nil
	case string:
		if parseableDatetime(v) {
			return nil
		}
		return &CheckError{Msg: fmt.Sprintf("%q is not a valid ISO-8601 datetime", v)}
	default:
		return &CheckError{Msg: fmt.Sprintf("expected datetime or ISO-8601 string, got %s", kindOf(value))}
	}
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseableDatetime(s string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// nested prefixes a child error's path with a parent segment.
func nested(segment string, err error) *CheckError {
	child, ok := err.(*CheckError)
	if !ok {
		return &CheckError{Path: segment, Msg: err.Error()}
	}
	path := segment
	if child.Path != "" {
		if strings.HasPrefix(child.Path, "[") {
			path = segment + child.Path
		} else {
			path = segment + "." + child.Path
		}
	}
	return &CheckError{Path: path, Msg: child.Msg, More: child.More}
}

func checkMsg(err error) string {
	if child, ok := err.(*CheckError); ok {
		return child.Error()
	}
	return err.Error()
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isInt(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Int64()
		return err == nil
	default:
		return false
	}
}

func isFloat(value any) bool {
	switch value.(type) {
	case float32, float64, json.Number:
		return true
	default:
		return false
	}
}

func isMap(value any) bool {
	return reflect.ValueOf(value).Kind() == reflect.Map
}

// kindOf names a value's kind for error messages.
func kindOf(value any) string {
	if isNil(value) {
		return "null"
	}
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "number"
	case time.Time:
		return "datetime"
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "mapping"
	default:
		return reflect.TypeOf(value).String()
	}
}
