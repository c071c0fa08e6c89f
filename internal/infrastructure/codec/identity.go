// Package codec encodes the persisted identity record: a flat JSON object
// with id, email, name, role and avatar. There is no version tag, checksum or
// expiry; a record that decodes and passes validation is trusted as-is.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/medihub/health-portal/internal/core/domain"
)

var validate = validator.New()

// EncodeIdentity serialises identity for storage.
func EncodeIdentity(identity *domain.Identity) ([]byte, error) {
	if identity == nil {
		return nil, fmt.Errorf("encode identity: nil identity")
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return nil, fmt.Errorf("encode identity: %w", err)
	}
	return data, nil
}

// DecodeIdentity parses a stored record. Anything that is not a well-formed
// identity is reported as domain.ErrMalformedRecord.
func DecodeIdentity(data []byte) (*domain.Identity, error) {
	var identity domain.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	if err := validate.Struct(&identity); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	return &identity, nil
}
