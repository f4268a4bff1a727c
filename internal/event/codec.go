package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// The trace file format is JSON Lines, one event per line:
//
//	{"event":"GC/Start","pid":4,"tid":9,"pname":"dotnet","time":"...","payload":{"Reason":"Small"}}
//
// Payload order in the document is the producer order, so decoding walks
// the token stream instead of unmarshalling into a map. A JSON null in
// the payload records a field name whose value was not captured.

// MarshalJSON renders the event as one trace file line (without the
// trailing newline), payload fields in producer order.
func (e *Event) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(`{"event":`)
	if err := encodeScalar(&buf, e.Name); err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, `,"pid":%d,"tid":%d,"pname":`, e.ProcessID, e.ThreadID)
	if err := encodeScalar(&buf, e.ProcessName); err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, `,"time":%q,"payload":{`, e.Time.Format(time.RFC3339Nano))

	for i, name := range e.fieldOrder {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeScalar(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		v, ok := e.fields[name]
		if !ok {
			v = nil
		}
		if err := encodeScalar(&buf, v); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")

	return buf.Bytes(), nil
}

func encodeScalar(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// UnmarshalLine decodes one trace file line into an Event.
func UnmarshalLine(data []byte) (*Event, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	ev := &Event{}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}

		switch key {
		case "event":
			if ev.Name, err = stringToken(dec); err != nil {
				return nil, fmt.Errorf("decode event name: %w", err)
			}
		case "pid":
			if ev.ProcessID, err = intToken(dec); err != nil {
				return nil, fmt.Errorf("decode pid: %w", err)
			}
		case "tid":
			if ev.ThreadID, err = intToken(dec); err != nil {
				return nil, fmt.Errorf("decode tid: %w", err)
			}
		case "pname":
			if ev.ProcessName, err = stringToken(dec); err != nil {
				return nil, fmt.Errorf("decode pname: %w", err)
			}
		case "time":
			s, err := stringToken(dec)
			if err != nil {
				return nil, fmt.Errorf("decode time: %w", err)
			}
			if ev.Time, err = time.Parse(time.RFC3339Nano, s); err != nil {
				return nil, fmt.Errorf("decode time: %w", err)
			}
		case "payload":
			if err := decodePayload(dec, ev); err != nil {
				return nil, err
			}
		default:
			if err := skipValue(dec); err != nil {
				return nil, fmt.Errorf("decode event: skip %q: %w", key, err)
			}
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

func decodePayload(dec *json.Decoder, ev *Event) error {
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	for dec.More() {
		name, err := stringToken(dec)
		if err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode payload %q: %w", name, err)
		}
		if d, ok := tok.(json.Delim); ok {
			return fmt.Errorf("decode payload %q: unexpected %v, want scalar", name, d)
		}
		if tok == nil {
			ev.AddFieldName(name)
		} else {
			ev.AddField(name, tok)
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("unexpected token %v, want %v", tok, want)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("unexpected token %v, want string", tok)
	}
	return s, nil
}

func intToken(dec *json.Decoder) (int, error) {
	tok, err := dec.Token()
	if err != nil {
		return 0, err
	}
	n, ok := tok.(json.Number)
	if !ok {
		return 0, fmt.Errorf("unexpected token %v, want number", tok)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, err
	}
	return int(i), nil
}

func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	if d != '{' && d != '[' {
		return fmt.Errorf("unexpected %v", d)
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
