package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const maxBodyBytes = 16 << 20 // uploads are CSV exports, keep them bounded

// decodeJSON decodes a request body into dst with a size cap.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
