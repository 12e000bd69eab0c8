package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Message is the signable intent message
type Message struct {
	SignerID string   `json:"signer_id"`
	Deadline Deadline `json:"deadline"`
	Intents  []Intent `json:"intents"`
}

// Deadline is an absolute unix time in seconds
type Deadline struct {
	Timestamp int64 `json:"timestamp"`
}

type Intent struct {
	Intent string `json:"intent"`
	Diff   Diff   `json:"diff"`
}

// DiffEntry is one signed balance change for an asset
type DiffEntry struct {
	Asset  string
	Amount string
}

// Diff maps asset identifiers to signed deltas and keeps insertion order on the wire.
type Diff []DiffEntry

// Get returns the delta recorded for asset
func (d Diff) Get(asset string) (string, bool) {
	for _, e := range d {
		if e.Asset == asset {
			return e.Amount, true
		}
	}
	return "", false
}

func (d Diff) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(e.Asset)
		if err != nil {
			return nil, err
		}
		val, err := marshalNoEscape(e.Amount)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Diff) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("diff must be a JSON object")
	}

	out := Diff{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("diff key must be a string")
		}
		var amount string
		if err := dec.Decode(&amount); err != nil {
			return fmt.Errorf("diff amount for %s: %w", key, err)
		}
		out = append(out, DiffEntry{Asset: key, Amount: amount})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}

// SignedData is the envelope submitted with publish_intent
type SignedData struct {
	Standard  string   `json:"standard"`
	Message   *Message `json:"message"`
	Nonce     string   `json:"nonce"`
	Recipient string   `json:"recipient"`
	Signature string   `json:"signature"`
	PublicKey string   `json:"public_key"`
}

// PublishIntentRequest is the single param of the relay "publish_intent" method
type PublishIntentRequest struct {
	QuoteHashes []string    `json:"quote_hashes"`
	SignedData  *SignedData `json:"signed_data"`
}

// PublishResult is the relay's answer to publish_intent
type PublishResult struct {
	Status            string   `json:"status"`
	TransactionHashes []string `json:"transaction_hashes,omitempty"`
	IntentHash        string   `json:"intent_hash,omitempty"`
	Reason            string   `json:"reason,omitempty"`
}

// IntentStatus is the result of the relay "get_status" method
type IntentStatus struct {
	IntentHash string            `json:"intent_hash"`
	Status     string            `json:"status"`
	Data       *IntentStatusData `json:"data,omitempty"`
}

type IntentStatusData struct {
	Hash string `json:"hash"`
}

// Settlement states reported by get_status
const (
	IntentPending       = "PENDING"
	IntentTxBroadcasted = "TX_BROADCASTED"
	IntentSettled       = "SETTLED"
	IntentNotFoundOrBad = "NOT_FOUND_OR_NOT_VALID"
)

// IsFinal reports whether the settlement status will not change any more
func (s IntentStatus) IsFinal() bool {
	return s.Status == IntentSettled || s.Status == IntentNotFoundOrBad
}

// MarshalMessage renders m as compact JSON without HTML escaping
func MarshalMessage(m *Message) ([]byte, error) {
	return marshalNoEscape(m)
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
