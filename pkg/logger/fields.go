package logger

import (
	"fmt"
	"strconv"
	"time"
)

// CorrelationIDFieldKey is the field key used for correlation ids in log entries.
const CorrelationIDFieldKey = "correlation_id"

// LogField represents a structured log field.
type LogField struct {
	Key   string
	Value string
}

// StringField returns a LogField for a string value.
func StringField(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// IntField returns a LogField for an integer value.
func IntField(key string, value int) LogField {
	return LogField{Key: key, Value: strconv.Itoa(value)}
}

// Int64Field returns a LogField for an int64 value.
func Int64Field(key string, value int64) LogField {
	return LogField{Key: key, Value: strconv.FormatInt(value, 10)}
}

// Float64Field returns a LogField for a float64 value.
func Float64Field(key string, value float64) LogField {
	return LogField{Key: key, Value: strconv.FormatFloat(value, 'f', -1, 64)}
}

// BoolField returns a LogField for a boolean value.
func BoolField(key string, value bool) LogField {
	return LogField{Key: key, Value: strconv.FormatBool(value)}
}

// DurationField returns a LogField for a duration value.
func DurationField(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value.String()}
}

// TimeField formats value as RFC3339.
func TimeField(key string, value time.Time) LogField {
	return LogField{Key: key, Value: value.Format(time.RFC3339)}
}

// ErrorField always uses the key "error".
func ErrorField(err error) LogField {
	if err == nil {
		return LogField{Key: "error", Value: "<nil>"}
	}
	return LogField{Key: "error", Value: err.Error()}
}

// Field converts any value with fmt semantics.
func Field[T any](key string, value T) LogField {
	switch v := any(value).(type) {
	case string:
		return StringField(key, v)
	case int:
		return IntField(key, v)
	case int64:
		return Int64Field(key, v)
	case float64:
		return Float64Field(key, v)
	case bool:
		return BoolField(key, v)
	case time.Time:
		return TimeField(key, v)
	case time.Duration:
		return DurationField(key, v)
	case error:
		return LogField{Key: key, Value: v.Error()}
	default:
		return LogField{Key: key, Value: fmt.Sprintf("%v", v)}
	}
}

// CorrelationIDField tags a log line with the request correlation id.
func CorrelationIDField(id string) LogField {
	return StringField(CorrelationIDFieldKey, id)
}

// UserIDField tags a log line with the user id.
func UserIDField(id string) LogField {
	return StringField("user_id", id)
}

// HTTPMethodField returns a LogField for the request method.
func HTTPMethodField(method string) LogField {
	return StringField("http_method", method)
}

// HTTPPathField returns a LogField for the request path.
func HTTPPathField(path string) LogField {
	return StringField("http_path", path)
}

// HTTPStatusField returns a LogField for the response status.
func HTTPStatusField(status int) LogField {
	return IntField("http_status", status)
}

// ClientIPField returns a LogField for the client address.
func ClientIPField(ip string) LogField {
	return StringField("client_ip", ip)
}
