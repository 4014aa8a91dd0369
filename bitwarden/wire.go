package bitwarden

import "github.com/google/uuid"

// identityTokenResponse is a successful /connect/token response.
type identityTokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	EncryptedPayload string `json:"encrypted_payload"`
}

// identityFailResponse is a rejected /connect/token response.
type identityFailResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorModel       *struct {
		Message string `json:"Message"`
	} `json:"ErrorModel"`
}

// message returns the most specific human-readable reason.
func (r *identityFailResponse) message() string {
	if r.ErrorModel != nil && r.ErrorModel.Message != "" {
		return r.ErrorModel.Message
	}
	if r.ErrorDescription != "" {
		return r.ErrorDescription
	}
	return r.Error
}

// loginPayload is the decrypted encrypted_payload of a login response.
type loginPayload struct {
	EncryptionKey string `json:"encryptionKey"`
}

// secretResponseModel is the API representation of a secret. key, value and
// note are EncStrings under the organization key.
type secretResponseModel struct {
	Object         string     `json:"object"`
	ID             *uuid.UUID `json:"id"`
	OrganizationID *uuid.UUID `json:"organizationId"`
	ProjectID      *uuid.UUID `json:"projectId"`
	Key            *string    `json:"key"`
	Value          *string    `json:"value"`
	Note           *string    `json:"note"`
	CreationDate   *string    `json:"creationDate"`
	RevisionDate   *string    `json:"revisionDate"`
	Projects       []struct {
		ID   *uuid.UUID `json:"id"`
		Name string     `json:"name"`
	} `json:"projects"`
}

// projectID returns the first assigned project, if any.
func (m *secretResponseModel) projectID() *uuid.UUID {
	for _, p := range m.Projects {
		if p.ID != nil {
			return p.ID
		}
	}
	return m.ProjectID
}

// missingFields lists required fields that are absent.
func (m *secretResponseModel) missingFields() []string {
	var missing []string
	if m.ID == nil {
		missing = append(missing, "id")
	}
	if m.OrganizationID == nil {
		missing = append(missing, "organizationId")
	}
	if m.Key == nil {
		missing = append(missing, "key")
	}
	if m.Value == nil {
		missing = append(missing, "value")
	}
	if m.CreationDate == nil {
		missing = append(missing, "creationDate")
	}
	if m.RevisionDate == nil {
		missing = append(missing, "revisionDate")
	}
	return missing
}
