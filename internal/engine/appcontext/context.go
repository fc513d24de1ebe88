package appcontext

import (
	"encoding/json"
	"fmt"
)

// Context is the decrypted payload of the app context header.
type Context struct {
	Type      string `json:"typ"`
	UserID    string `json:"uid"`
	MeetingID string `json:"mid,omitempty"`
	Timestamp int64  `json:"ts"`
	ExpiresAt int64  `json:"exp,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type Decryptor struct {
	key []byte
}

func NewDecryptor(clientSecret string) *Decryptor {
	return &Decryptor{key: Key(clientSecret)}
}

// Decode unpacks and decrypts a header value. It never returns a partially
// decoded context.
func (d *Decryptor) Decode(header string) (*Context, error) {
	sealed, err := Unpack(header)
	if err != nil {
		return nil, err
	}

	raw, err := Decrypt(sealed, d.key)
	if err != nil {
		return nil, err
	}

	var ctx Context
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	ctx.Raw = raw
	return &ctx, nil
}
