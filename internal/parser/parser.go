// Package parser turns raw model text into typed values. The model is treated
// as an untrusted source: anything that is not valid JSON for the target type
// comes back as Malformed instead of an error or a panic.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Result is either Parsed(value) or Malformed(reason).
type Result[T any] struct {
	value  T
	ok     bool
	reason string
}

// Parsed wraps a successfully decoded value.
func Parsed[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Malformed records why the text could not be decoded.
func Malformed[T any](reason string) Result[T] {
	return Result[T]{reason: reason}
}

// Value returns the decoded value and whether parsing succeeded.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.ok
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool {
	return r.ok
}

// Reason is empty for parsed results.
func (r Result[T]) Reason() string {
	return r.reason
}

// Parse strictly decodes raw into T. Code fences are only looked for when
// the trimmed text is not already valid JSON, so backticks inside string
// values survive.
func Parse[T any](raw string) (result Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			result = Malformed[T](fmt.Sprintf("panic while decoding: %v", p))
		}
	}()

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Malformed[T]("empty response")
	}
	if v, err := decode[T](trimmed); err == nil {
		return Parsed(v)
	}

	text := StripCodeFences(trimmed)
	if text == "" {
		return Malformed[T]("empty response")
	}

	v, err := decode[T](text)
	if err == nil {
		return Parsed(v)
	}

	// Prose around an unfenced object: try the outermost braces.
	if inner, ok := outermostObject(text); ok && inner != text {
		if v, innerErr := decode[T](inner); innerErr == nil {
			return Parsed(v)
		}
	}
	return Malformed[T](err.Error())
}

func decode[T any](text string) (T, error) {
	var v T
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("invalid JSON: %w", err)
	}
	// Only whitespace may follow the value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return v, errors.New("invalid JSON: trailing data after value")
	}
	if isJSONNull(text) {
		return v, errors.New("response is null")
	}
	return v, nil
}

func isJSONNull(text string) bool {
	return bytes.Equal(bytes.TrimSpace([]byte(text)), []byte("null"))
}

// StripCodeFences removes a triple-backtick block, optionally language
// tagged, and any chatter before the opening fence.
func StripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}

	body := text[start+3:]
	// Drop the language tag: everything up to the first newline, provided it is a bare word.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isLanguageTag(body[:nl]) {
		body = body[nl+1:]
	} else if nl < 0 {
		body = strings.TrimLeft(body, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}

	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func outermostObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
