package models

// TokenPayload is the decoded claim set of a Google-issued ID token.
//
// Field names and optionality follow the wire format of the issuer: required
// claims are plain values, optional claims are pointers so that "not
// provided" stays distinguishable from "provided but empty" after
// deserialization.
type TokenPayload struct {
	// Iss is the token issuer.
	Iss string `json:"iss"`
	// Sub is the stable unique identifier for the user.
	Sub string `json:"sub"`
	// Aud is the intended audience (the relying party's client ID).
	Aud string `json:"aud"`
	// Iat is the issued-at time in unix seconds.
	Iat int64 `json:"iat"`
	// Exp is the expiry time in unix seconds.
	Exp int64 `json:"exp"`

	AtHash        *string `json:"at_hash,omitempty"`
	EmailVerified *bool   `json:"email_verified,omitempty"`
	Azp           *string `json:"azp,omitempty"`
	Email         *string `json:"email,omitempty"`
	Profile       *string `json:"profile,omitempty"`
	Picture       *string `json:"picture,omitempty"`
	Name          *string `json:"name,omitempty"`
	GivenName     *string `json:"given_name,omitempty"`
	FamilyName    *string `json:"family_name,omitempty"`
	Nonce         *string `json:"nonce,omitempty"`
	HD            *string `json:"hd,omitempty"`
	Locale        *string `json:"locale,omitempty"`

	// Google carries access-level and device information for tokens minted
	// inside a BeyondCorp-style deployment.
	Google *GoogleClaim `json:"google,omitempty"`
}

// GoogleClaim is the nested access-level and device claim.
type GoogleClaim struct {
	AccessLevels []string `json:"access_levels,omitempty"`
	DeviceID     *string  `json:"device_id,omitempty"`
}
