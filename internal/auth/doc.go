// Package auth provides authentication for research-manager.
//
// # Authentication Flow
//
// Users register with a username and password; passwords are stored as bcrypt
// hashes. Login verifies the hash and mints an HS256-signed JWT whose "sub"
// claim carries the user ID. API requests present the token as an
// Authorization bearer header; Middleware verifies it, resolves the user, and
// attaches an Identity to the request context.
//
// Handlers read the caller with FromContext (or MustFromContext behind the
// middleware) and scope every store query to Identity.UserID. There is no
// ambient session: identity always travels with the request context.
//
// # Timing Safety
//
// Login failures run a bcrypt comparison against a fixed dummy hash when the
// username is unknown, keeping response timing flat so usernames can't be
// enumerated.
//
// # Token Management
//
//	verifier := auth.NewJWTVerifier(secret)
//	token, err := verifier.Generate(userID, username, ttl)
//	claims, err := verifier.Verify(token)
//
// Tokens carry iss, sub, username, iat, and exp claims. The verifier pins
// the signing method and issuer and requires an expiry; expired tokens
// surface as ErrExpiredToken. The username claim is informational: the
// middleware always resolves the account from the store.
package auth
