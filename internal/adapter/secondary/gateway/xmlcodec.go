package gateway

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// The gateway speaks a flat XML dialect: a single <xml> root whose child
// elements form an open key/value set. encoding/xml structs cannot express
// an open key set, so both directions work on map[string]string.

// EncodeMap renders a field map as a flat gateway XML document.
// Keys are emitted in sorted order, values wrapped in CDATA.
func EncodeMap(fields map[string]string) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b bytes.Buffer
	b.WriteString("<xml>")
	for _, k := range keys {
		fmt.Fprintf(&b, "<%s><![CDATA[%s]]></%s>", k, fields[k], k)
	}
	b.WriteString("</xml>")
	return b.Bytes()
}

// DecodeMap parses a flat gateway XML document into a field map.
// Nested elements and documents without a root are rejected.
func DecodeMap(data []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	fields := make(map[string]string)
	var sawRoot bool
	var field string
	var value strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !sawRoot {
				sawRoot = true
				continue
			}
			if field != "" {
				return nil, fmt.Errorf("nested element <%s>", t.Name.Local)
			}
			field = t.Name.Local
			value.Reset()
		case xml.CharData:
			if field != "" {
				value.Write(t)
			}
		case xml.EndElement:
			if field != "" && t.Name.Local == field {
				fields[field] = value.String()
				field = ""
			}
		}
	}
	if !sawRoot {
		return nil, errors.New("empty document")
	}
	return fields, nil
}
