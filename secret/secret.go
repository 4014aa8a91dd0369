package secret

import (
	"fmt"

	"github.com/google/uuid"
)

// Identifier scopes a secret lookup.
//
// OrganizationID must match the fetched secret. ProjectID is accepted for
// routing but not verified against the secret.
type Identifier struct {
	OrganizationID uuid.UUID
	ProjectID      uuid.UUID
	SecretID       uuid.UUID
}

// ParseIdentifier parses the three path segments of a secret lookup.
func ParseIdentifier(organizationID, projectID, secretID string) (Identifier, error) {
	var id Identifier
	var err error

	if id.OrganizationID, err = uuid.Parse(organizationID); err != nil {
		return Identifier{}, fmt.Errorf("%w: organization id: %v", ErrInvalidIdentifier, err)
	}
	if id.ProjectID, err = uuid.Parse(projectID); err != nil {
		return Identifier{}, fmt.Errorf("%w: project id: %v", ErrInvalidIdentifier, err)
	}
	if id.SecretID, err = uuid.Parse(secretID); err != nil {
		return Identifier{}, fmt.Errorf("%w: secret id: %v", ErrInvalidIdentifier, err)
	}
	return id, nil
}

// Secret is a decrypted secret as returned by the upstream platform.
type Secret struct {
	// Object is the upstream object type, usually "secret".
	Object string

	ID             uuid.UUID
	OrganizationID uuid.UUID

	// ProjectID is nil when the secret is not assigned to a project.
	ProjectID *uuid.UUID

	Key   string
	Value string
	Note  string

	// CreationDate and RevisionDate are the upstream RFC 3339 text.
	CreationDate string
	RevisionDate string
}
