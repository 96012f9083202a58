package gcp

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptions resolves the service-account credential for the record
// store from the environment: a JSON blob in SHEETS_CREDENTIALS_JSON or a
// file path in SHEETS_CREDENTIALS_FILE. The blob form is what operators
// paste into a deployment secret, so it goes through the repair pass.
func ClientOptions() ([]option.ClientOption, error) {
	if blob := strings.TrimSpace(os.Getenv("SHEETS_CREDENTIALS_JSON")); blob != "" {
		repaired, err := RepairCredentialJSON(blob)
		if err != nil {
			return nil, err
		}
		return []option.ClientOption{option.WithCredentialsJSON(repaired)}, nil
	}
	if path := strings.TrimSpace(os.Getenv("SHEETS_CREDENTIALS_FILE")); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}, nil
	}
	return nil, fmt.Errorf("missing SHEETS_CREDENTIALS_JSON or SHEETS_CREDENTIALS_FILE")
}

// RepairCredentialJSON tolerates the most common corruption of a pasted
// service-account key: the escaped newlines of the private_key field turned
// into literal newline bytes, which breaks the JSON grammar. A blob that
// parses as-is passes through untouched; otherwise every raw newline is
// re-escaped and the parse retried once.
func RepairCredentialJSON(raw string) ([]byte, error) {
	var probe map[string]any
	if err := json.Unmarshal([]byte(raw), &probe); err == nil {
		return []byte(raw), nil
	}
	repaired := strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`).Replace(raw)
	if err := json.Unmarshal([]byte(repaired), &probe); err != nil {
		return nil, fmt.Errorf("service-account credential JSON is malformed even after newline repair: %w", err)
	}
	return []byte(repaired), nil
}
