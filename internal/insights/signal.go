package insights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownSignalType is returned when decoding a signal with an unrecognised tag.
var ErrUnknownSignalType = errors.New("unknown signal type")

// SignalType tags the variant held in a Signal.
type SignalType string

const (
	SignalAttachmentStyle      SignalType = "attachment_style"
	SignalConflictMode         SignalType = "conflict_mode"
	SignalCommunicationPattern SignalType = "communication_pattern"
	SignalCoreNeeds            SignalType = "core_needs"
)

// SignalTypes lists every known signal type.
var SignalTypes = []SignalType{
	SignalAttachmentStyle,
	SignalConflictMode,
	SignalCommunicationPattern,
	SignalCoreNeeds,
}

// SignalValue is implemented only by the variants in this package. Adding a
// new signal type means adding a variant here and a case in DecodeSignalValue.
type SignalValue interface {
	SignalType() SignalType
	validate() error
}

// AttachmentStyle is the attachment_style variant.
type AttachmentStyle struct {
	Style string `json:"style" jsonschema:"enum=secure,enum=anxious,enum=avoidant,enum=disorganized"`
}

// ConflictMode is the conflict_mode variant (Thomas-Kilmann modes).
type ConflictMode struct {
	Mode string `json:"mode" jsonschema:"enum=competing,enum=collaborating,enum=compromising,enum=avoiding,enum=accommodating"`
}

// CommunicationPattern is the communication_pattern variant.
type CommunicationPattern struct {
	Horsemen []string `json:"horsemen" jsonschema:"enum=criticism,enum=contempt,enum=defensiveness,enum=stonewalling"`
}

// CoreNeeds is the core_needs variant.
type CoreNeeds struct {
	Needs []string `json:"needs" jsonschema:"minItems=1"`
}

// SignalType identifies each payload variant.
func (AttachmentStyle) SignalType() SignalType      { return SignalAttachmentStyle }
func (ConflictMode) SignalType() SignalType         { return SignalConflictMode }
func (CommunicationPattern) SignalType() SignalType { return SignalCommunicationPattern }
func (CoreNeeds) SignalType() SignalType            { return SignalCoreNeeds }

var (
	attachmentStyles = []string{"secure", "anxious", "avoidant", "disorganized"}
	conflictModes    = []string{"competing", "collaborating", "compromising", "avoiding", "accommodating"}
	horsemen         = []string{"criticism", "contempt", "defensiveness", "stonewalling"}
)

func oneOf(value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %s", value, strings.Join(allowed, ", "))
}

func (v AttachmentStyle) validate() error { return oneOf(v.Style, attachmentStyles) }
func (v ConflictMode) validate() error    { return oneOf(v.Mode, conflictModes) }

func (v CommunicationPattern) validate() error {
	for _, h := range v.Horsemen {
		if err := oneOf(h, horsemen); err != nil {
			return err
		}
	}
	return nil
}

func (v CoreNeeds) validate() error {
	if len(v.Needs) == 0 {
		return errors.New("needs is empty")
	}
	return nil
}

// EmptySignalValue returns the zero variant for t, used to describe the
// payload shape each signal type expects.
func EmptySignalValue(t SignalType) (SignalValue, error) {
	switch t {
	case SignalAttachmentStyle:
		return AttachmentStyle{}, nil
	case SignalConflictMode:
		return ConflictMode{}, nil
	case SignalCommunicationPattern:
		return CommunicationPattern{}, nil
	case SignalCoreNeeds:
		return CoreNeeds{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignalType, t)
	}
}

// wrapBarePayload accepts a bare string for single-valued variants and a bare
// list for list-valued ones, wrapping it in the variant's object.
func wrapBarePayload(t SignalType, raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return raw
	}
	var key string
	switch {
	case t == SignalAttachmentStyle && trimmed[0] == '"':
		key = "style"
	case t == SignalConflictMode && trimmed[0] == '"':
		key = "mode"
	case t == SignalCommunicationPattern && trimmed[0] == '[':
		key = "horsemen"
	case t == SignalCoreNeeds && trimmed[0] == '[':
		key = "needs"
	default:
		return raw
	}
	wrapped, err := json.Marshal(map[string]json.RawMessage{key: trimmed})
	if err != nil {
		return raw
	}
	return wrapped
}

// DecodeSignalValue decodes the payload for the given tag into its variant.
func DecodeSignalValue(t SignalType, raw json.RawMessage) (SignalValue, error) {
	var (
		value SignalValue
		err   error
	)
	raw = wrapBarePayload(t, raw)
	switch t {
	case SignalAttachmentStyle:
		var v AttachmentStyle
		err = json.Unmarshal(raw, &v)
		v.Style = strings.ToLower(strings.TrimSpace(v.Style))
		value = v
	case SignalConflictMode:
		var v ConflictMode
		err = json.Unmarshal(raw, &v)
		v.Mode = strings.ToLower(strings.TrimSpace(v.Mode))
		value = v
	case SignalCommunicationPattern:
		var v CommunicationPattern
		err = json.Unmarshal(raw, &v)
		for i := range v.Horsemen {
			v.Horsemen[i] = strings.ToLower(strings.TrimSpace(v.Horsemen[i]))
		}
		value = v
	case SignalCoreNeeds:
		var v CoreNeeds
		err = json.Unmarshal(raw, &v)
		value = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignalType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	if err := value.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", t, err)
	}
	return value, nil
}

// RawSignal is a signal as the model emits it, before its tag is checked.
type RawSignal struct {
	Type       SignalType      `json:"signal_type" jsonschema:"enum=attachment_style,enum=conflict_mode,enum=communication_pattern,enum=core_needs"`
	Value      json.RawMessage `json:"signal_value"`
	Confidence float64         `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

// Signal is one typed, confidence-scored behavioural attribute of a user.
// There is at most one Signal per type per user.
type Signal struct {
	Type       SignalType
	Value      SignalValue
	Confidence float64
	DetectedAt time.Time
}

// ClampConfidence bounds c to [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// DecodeSignals converts raw model signals into typed ones. Signals that fail
// to decode are skipped and reported in the returned error slice.
func DecodeSignals(raw []RawSignal, detectedAt time.Time) ([]Signal, []error) {
	var (
		signals []Signal
		errs    []error
	)
	for _, r := range raw {
		value, err := DecodeSignalValue(r.Type, r.Value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		signals = append(signals, Signal{
			Type:       r.Type,
			Value:      value,
			Confidence: ClampConfidence(r.Confidence),
			DetectedAt: detectedAt,
		})
	}
	return signals, errs
}

type signalJSON struct {
	Type       SignalType      `json:"signal_type"`
	Value      json.RawMessage `json:"signal_value"`
	Confidence float64         `json:"confidence"`
	DetectedAt time.Time       `json:"detected_at"`
}

// MarshalJSON implements json.Marshaler.
func (s Signal) MarshalJSON() ([]byte, error) {
	value, err := json.Marshal(s.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(signalJSON{
		Type:       s.Type,
		Value:      value,
		Confidence: s.Confidence,
		DetectedAt: s.DetectedAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var aux signalJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	value, err := DecodeSignalValue(aux.Type, aux.Value)
	if err != nil {
		return err
	}
	*s = Signal{
		Type:       aux.Type,
		Value:      value,
		Confidence: ClampConfidence(aux.Confidence),
		DetectedAt: aux.DetectedAt,
	}
	return nil
}
