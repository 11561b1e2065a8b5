package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/JonMunkholm/tabstat/internal/core"
	"github.com/JonMunkholm/tabstat/internal/logging"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"
)

// errEncodeResponse maps to the generic ERR000 message.
var errEncodeResponse = errors.New("response could not be encoded")

// wantsMsgpack reports whether the client asked for MessagePack.
func wantsMsgpack(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, contentTypeMsgpack) ||
		strings.Contains(accept, "application/x-msgpack")
}

// encode renders v as JSON, or as MessagePack when the client asks for it.
// Both encodings use the json field names.
func encode(r *http.Request, v any) ([]byte, string, error) {
	var buf bytes.Buffer
	if wantsMsgpack(r) {
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(v); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), contentTypeMsgpack, nil
	}

	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), contentTypeJSON, nil
}

// respond writes v with the given status. The body is encoded before any
// header is sent, so a value that cannot be encoded becomes a 500 error
// response instead of a truncated success.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, contentType, err := encode(r, v)
	if err != nil {
		logging.FromContext(r.Context()).Error("encode response", "error", err, "status", status)

		msg := core.MapError(errEncodeResponse)
		status = msg.Status
		body, contentType, err = encode(r, newErrorResponse(msg))
		if err != nil {
			http.Error(w, msg.Message, status)
			return
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.FromContext(r.Context()).Debug("write response", "error", err)
	}
}

// writeJSON writes v with status 200.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	respond(w, r, http.StatusOK, v)
}
