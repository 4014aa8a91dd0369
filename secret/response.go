package secret

import "github.com/google/uuid"

// Response is the wire representation of a secret.
type Response struct {
	Object         string     `json:"object"`
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	ProjectID      *uuid.UUID `json:"projectId"`

	Key   string `json:"key"`
	Value Value  `json:"value"`
	Note  string `json:"note"`

	CreationDate string `json:"creationDate"`
	RevisionDate string `json:"revisionDate"`
}

// Normalize converts an upstream secret into its wire representation.
//
// Value is decoded with DecodeValue. Timestamps are passed through as the
// upstream sent them.
func Normalize(s *Secret) Response {
	object := s.Object
	if object == "" {
		object = "secret"
	}

	var projectID *uuid.UUID
	if s.ProjectID != nil {
		p := *s.ProjectID
		projectID = &p
	}

	return Response{
		Object:         object,
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		ProjectID:      projectID,
		Key:            s.Key,
		Value:          DecodeValue(s.Value),
		Note:           s.Note,
		CreationDate:   s.CreationDate,
		RevisionDate:   s.RevisionDate,
	}
}
