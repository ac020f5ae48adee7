package sensibo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the {status, result} wrapper around every read response.
type Envelope[T any] struct {
	Status string `json:"status"`
	Result T      `json:"result"`
}

type rawEnvelope struct {
	Status *string         `json:"status"`
	Result json.RawMessage `json:"result"`
}

// Decode parses an enveloped response. Any missing or mistyped required
// field fails with a decode error and a zero value; partial results are never
// returned.
func Decode[T any](data []byte) (Envelope[T], error) {
	var zero Envelope[T]

	raw, err := decodeRawEnvelope(data)
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal(raw.Result, &result); err != nil {
		return zero, NewDecodeError(fmt.Sprintf("failed to decode result as %T", result), err)
	}

	return Envelope[T]{Status: *raw.Status, Result: result}, nil
}

// DecodeMutation parses the response of an AC state read or write. Both the
// enveloped form {status, result: {status, reason, acState}} and the bare
// form {status, reason, acState} are accepted. An enveloped result may be an
// array, in which case the first (newest) entry is used.
func DecodeMutation(data []byte) (MutationResponse, error) {
	var probe struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return MutationResponse{}, NewDecodeError("response is not a JSON object", err)
	}

	if isNull(probe.Result) {
		var resp MutationResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return MutationResponse{}, NewDecodeError("failed to decode mutation response", err)
		}
		return resp, nil
	}

	raw, err := decodeRawEnvelope(data)
	if err != nil {
		return MutationResponse{}, err
	}
	return decodeACStateResult(raw.Result)
}

func decodeRawEnvelope(data []byte) (rawEnvelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return rawEnvelope{}, NewDecodeError("response is not a JSON object", err)
	}
	if raw.Status == nil {
		return rawEnvelope{}, NewDecodeError(`missing required field "status"`, nil)
	}
	if isNull(raw.Result) {
		return rawEnvelope{}, NewDecodeError(`missing required field "result"`, nil)
	}
	return raw, nil
}

func decodeACStateResult(raw json.RawMessage) (MutationResponse, error) {
	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []MutationResponse
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return MutationResponse{}, NewDecodeError("failed to decode AC state list", err)
		}
		if len(list) == 0 {
			return MutationResponse{}, NewDecodeError("AC state list is empty", nil)
		}
		return list[0], nil
	}

	var resp MutationResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return MutationResponse{}, NewDecodeError("failed to decode mutation response", err)
	}
	return resp, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
