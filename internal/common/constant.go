package common

// AccessTokenHeaderName is the HTTP header carrying the backend-issued
// access token ("Authorization: Bearer <token>").
const AccessTokenHeaderName = "Authorization"

// BearerPrefix precedes the token value in AccessTokenHeaderName.
const BearerPrefix = "Bearer "
