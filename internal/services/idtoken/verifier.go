package idtoken

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/jcat4/token-gate/internal/models"
)

// Issuers accepted for Google-issued ID tokens. Both forms appear in the
// wild depending on how the token was minted.
var googleIssuers = []string{
	"accounts.google.com",
	"https://accounts.google.com",
}

// DefaultClockSkew is the tolerance applied to iat/exp checks.
const DefaultClockSkew = 5 * time.Minute

// Verifier validates Google ID tokens and produces login tickets.
type Verifier struct {
	certs     *CertsManager
	certsURL  string
	clockSkew time.Duration
}

// NewVerifier creates a verifier backed by the given certs manager.
func NewVerifier(certs *CertsManager) *Verifier {
	return &Verifier{
		certs:     certs,
		certsURL:  GoogleCertsURL,
		clockSkew: DefaultClockSkew,
	}
}

// Verify checks the token's signature against the issuer's published keys,
// validates expiry and issued-at with clock-skew tolerance, and checks the
// issuer and (when audience is non-empty) the audience claim. On success it
// returns a ticket carrying the decoded envelope and the full claim set.
func (v *Verifier) Verify(ctx context.Context, rawToken, audience string) (*models.LoginTicket, error) {
	keys, err := v.certs.Get(ctx, v.certsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get signing keys: %w", err)
	}

	token, err := jwt.Parse([]byte(rawToken),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.clockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	issuerOK := false
	for _, iss := range googleIssuers {
		if token.Issuer() == iss {
			issuerOK = true
			break
		}
	}
	if !issuerOK {
		return nil, fmt.Errorf("token issuer %q is not a Google issuer", token.Issuer())
	}

	if audience != "" {
		audOK := false
		for _, aud := range token.Audience() {
			if aud == audience {
				audOK = true
				break
			}
		}
		if !audOK {
			return nil, fmt.Errorf("token audience mismatch: expected %s", audience)
		}
	}

	payload := payloadFromToken(token)

	envelope, err := decodeEnvelope(rawToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token envelope: %w", err)
	}

	return models.NewLoginTicket(envelope, payload), nil
}

// VerifyForClient verifies the token against a registered relying party,
// enforcing its audience and optional hosted-domain restriction.
func (v *Verifier) VerifyForClient(ctx context.Context, rawToken string, client *models.Client) (*models.LoginTicket, error) {
	if client.Disabled {
		return nil, fmt.Errorf("client %s is disabled", client.Name)
	}

	ticket, err := v.Verify(ctx, rawToken, client.Audience)
	if err != nil {
		return nil, err
	}

	if client.HostedDomain != nil {
		payload := ticket.Payload()
		if payload == nil || payload.HD == nil || *payload.HD != *client.HostedDomain {
			return nil, fmt.Errorf("token hosted domain does not match client restriction %s", *client.HostedDomain)
		}
	}

	return ticket, nil
}

// payloadFromToken maps the verified token's claims onto the wire shape.
// Optional claims stay nil when the token does not carry them.
func payloadFromToken(token jwt.Token) *models.TokenPayload {
	payload := &models.TokenPayload{
		Iss: token.Issuer(),
		Sub: token.Subject(),
	}

	if aud := token.Audience(); len(aud) > 0 {
		payload.Aud = aud[0]
	}
	if !token.IssuedAt().IsZero() {
		payload.Iat = token.IssuedAt().Unix()
	}
	if !token.Expiration().IsZero() {
		payload.Exp = token.Expiration().Unix()
	}

	payload.AtHash = optionalString(token, "at_hash")
	payload.Azp = optionalString(token, "azp")
	payload.Email = optionalString(token, "email")
	payload.Profile = optionalString(token, "profile")
	payload.Picture = optionalString(token, "picture")
	payload.Name = optionalString(token, "name")
	payload.GivenName = optionalString(token, "given_name")
	payload.FamilyName = optionalString(token, "family_name")
	payload.Nonce = optionalString(token, "nonce")
	payload.HD = optionalString(token, "hd")
	payload.Locale = optionalString(token, "locale")

	if verified, ok := token.Get("email_verified"); ok {
		if verifiedBool, ok := verified.(bool); ok {
			payload.EmailVerified = &verifiedBool
		}
	}

	if google, ok := token.Get("google"); ok {
		if googleMap, ok := google.(map[string]any); ok {
			payload.Google = googleClaimFromMap(googleMap)
		}
	}

	return payload
}

func optionalString(token jwt.Token, name string) *string {
	value, ok := token.Get(name)
	if !ok {
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return nil
	}
	return &str
}

func googleClaimFromMap(claim map[string]any) *models.GoogleClaim {
	google := &models.GoogleClaim{}

	if levels, ok := claim["access_levels"].([]any); ok {
		for _, level := range levels {
			if levelStr, ok := level.(string); ok {
				google.AccessLevels = append(google.AccessLevels, levelStr)
			}
		}
	}
	if deviceID, ok := claim["device_id"].(string); ok {
		google.DeviceID = &deviceID
	}

	return google
}

// decodeEnvelope extracts the JOSE header segment of the compact token as a
// JSON string. The ticket keeps it for diagnostics and re-verification.
func decodeEnvelope(rawToken string) (string, error) {
	parts := strings.SplitN(rawToken, ".", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("token is not in compact JWS form")
	}

	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("failed to decode header segment: %w", err)
	}

	return string(header), nil
}
