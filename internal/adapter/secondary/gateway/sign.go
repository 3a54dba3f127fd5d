package gateway

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

const signField = "sign"

// SignMap computes the gateway's MD5 signature over a field map: fields
// sorted by key, empty values and the sign field itself excluded, joined
// as k=v pairs, with the shared API key appended last.
func SignMap(fields map[string]string, apiKey string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == signField || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte('&')
	}
	b.WriteString("key=")
	b.WriteString(apiKey)

	sum := md5.Sum([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// VerifySign checks a field map's sign field against the shared API key
func VerifySign(fields map[string]string, apiKey string) bool {
	got, ok := fields[signField]
	if !ok || got == "" {
		return false
	}
	want := SignMap(fields, apiKey)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
