package bitwarden

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/jonwraymond/bwsproxy/auth"
	"github.com/jonwraymond/bwsproxy/secret"
)

// Client is a single upstream session.
//
// A Client is not safe for concurrent use; create one per request.
type Client struct {
	settings Settings
	http     *resty.Client
	session  *session
}

// session is the state established by a successful Login.
type session struct {
	accessToken     string
	organizationID  uuid.UUID
	organizationKey *SymmetricKey
}

// NewClient creates an unauthenticated client.
func NewClient(settings Settings) *Client {
	settings = settings.withDefaults()

	rc := resty.NewWithClient(settings.HTTPClient).
		SetDisableWarn(true).
		SetHeader("User-Agent", settings.UserAgent).
		SetHeader("Device-Type", strconv.Itoa(settings.DeviceType)).
		SetHeader("Accept", "application/json")

	return &Client{
		settings: settings,
		http:     rc,
	}
}

// Login authenticates with a machine-account access token.
//
// On success the organization key is unwrapped from the login payload and
// kept for the lifetime of the client.
func (c *Client) Login(ctx context.Context, accessToken string) (*auth.Identity, error) {
	token, err := ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	req := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"scope":         "api.secrets",
			"client_id":     token.ID.String(),
			"client_secret": token.ClientSecret,
			"grant_type":    "client_credentials",
		})

	status, body, err := c.send(req, http.MethodPost, c.settings.IdentityURL+"/connect/token")
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, identityError(status, body)
	}

	var resp identityTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, secret.NewError(secret.KindSerialization, err)
	}
	if resp.AccessToken == "" || resp.EncryptedPayload == "" {
		return nil, secret.Errorf(secret.KindMissingFields, "login response lacks access_token or encrypted_payload")
	}

	identity, err := auth.IdentityFromAccessToken(resp.AccessToken)
	if err != nil {
		return nil, secret.NewError(secret.KindInvalidResponse, err)
	}
	organizationID, err := uuid.Parse(identity.TenantID)
	if err != nil {
		return nil, secret.Errorf(secret.KindInvalidResponse, "access token has no valid organization claim")
	}

	organizationKey, err := unwrapOrganizationKey(token, resp.EncryptedPayload)
	if err != nil {
		return nil, err
	}

	c.session = &session{
		accessToken:     resp.AccessToken,
		organizationID:  organizationID,
		organizationKey: organizationKey,
	}
	return identity, nil
}

// Get fetches a secret by id and decrypts it.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (*secret.Secret, error) {
	if c.session == nil {
		return nil, &secret.Error{Kind: secret.KindNotAuthenticated}
	}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.session.accessToken)

	status, body, err := c.send(req, http.MethodGet, c.settings.APIURL+"/secrets/"+id.String())
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, secret.ResponseContentError(status, string(body))
	}

	var model secretResponseModel
	if err := json.Unmarshal(body, &model); err != nil {
		return nil, secret.NewError(secret.KindSerialization, err)
	}
	if missing := model.missingFields(); len(missing) > 0 {
		return nil, secret.Errorf(secret.KindMissingFields, "missing fields: %s", strings.Join(missing, ", "))
	}
	if *model.OrganizationID != c.session.organizationID {
		return nil, &secret.Error{Kind: secret.KindVaultLocked}
	}

	return c.decryptSecret(&model)
}

func (c *Client) decryptSecret(m *secretResponseModel) (*secret.Secret, error) {
	key := c.session.organizationKey

	name, err := decryptString(*m.Key, key)
	if err != nil {
		return nil, err
	}
	value, err := decryptString(*m.Value, key)
	if err != nil {
		return nil, err
	}
	var note string
	if m.Note != nil && *m.Note != "" {
		if note, err = decryptString(*m.Note, key); err != nil {
			return nil, err
		}
	}

	for _, date := range []string{*m.CreationDate, *m.RevisionDate} {
		if _, err := time.Parse(time.RFC3339, date); err != nil {
			return nil, secret.NewError(secret.KindDateParse, err)
		}
	}

	return &secret.Secret{
		Object:         m.Object,
		ID:             *m.ID,
		OrganizationID: *m.OrganizationID,
		ProjectID:      m.projectID(),
		Key:            name,
		Value:          value,
		Note:           note,
		CreationDate:   *m.CreationDate,
		RevisionDate:   *m.RevisionDate,
	}, nil
}

// send executes req and reads the whole body.
func (c *Client) send(req *resty.Request, method, url string) (int, []byte, error) {
	resp, err := req.SetDoNotParseResponse(true).Execute(method, url)
	if err != nil {
		return 0, nil, secret.NewError(secret.KindTransport, err)
	}

	raw := resp.RawBody()
	if raw == nil {
		return resp.StatusCode(), nil, nil
	}
	defer func() { _ = raw.Close() }()

	body, err := io.ReadAll(raw)
	if err != nil {
		return 0, nil, secret.NewError(secret.KindIO, err)
	}
	return resp.StatusCode(), body, nil
}

// unwrapOrganizationKey decrypts the login payload and extracts the
// organization key.
func unwrapOrganizationKey(token *AccessToken, encryptedPayload string) (*SymmetricKey, error) {
	payloadKey, err := token.PayloadKey()
	if err != nil {
		return nil, err
	}
	plain, err := decryptString(encryptedPayload, payloadKey)
	if err != nil {
		return nil, err
	}

	var payload loginPayload
	if err := json.Unmarshal([]byte(plain), &payload); err != nil {
		return nil, secret.NewError(secret.KindSerialization, err)
	}
	if payload.EncryptionKey == "" {
		return nil, secret.Errorf(secret.KindMissingFields, "login payload lacks encryptionKey")
	}

	raw, err := base64.StdEncoding.DecodeString(payload.EncryptionKey)
	if err != nil {
		return nil, secret.NewError(secret.KindInvalidBase64, err)
	}
	return SymmetricKeyFromBytes(raw)
}

// identityError classifies a rejected login.
func identityError(status int, body []byte) error {
	var fail identityFailResponse
	if err := json.Unmarshal(body, &fail); err == nil && fail.Error != "" {
		return secret.Errorf(secret.KindIdentityFail, "%s", fail.message())
	}
	return secret.ResponseContentError(status, string(body))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// Ensure Client implements secret.Session
var _ secret.Session = (*Client)(nil)
