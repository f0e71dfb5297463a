package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// JWTOnlyHandler godoc
//
//	@Summary		Bearer-protected probe
//	@Description	Answers when the request carries a valid jwt.
//	@Tags			Secure
//	@Security		BearerAuth
//	@Produce		plain
//	@Success		200	{string}	string					"This endpoint requires a JWT."
//	@Failure		401	{object}	authsdk.ErrorResponse	"unauthenticated"
//	@Router			/secure/jwt-only [get].
func JWTOnlyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteText(w, http.StatusOK, "This endpoint requires a JWT.")
	}
}

// AdminHandler godoc
//
//	@Summary		Admin-only probe
//	@Description	Answers when the jwt carries the Admin role.
//	@Tags			Secure
//	@Security		BearerAuth
//	@Produce		plain
//	@Success		200	{string}	string					"Hello, Admin!"
//	@Failure		401	{object}	authsdk.ErrorResponse	"unauthenticated"
//	@Failure		403	{object}	authsdk.ErrorResponse	"forbidden"
//	@Router			/secure/admin [get].
func AdminHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteText(w, http.StatusOK, "Hello, Admin!")
	}
}
