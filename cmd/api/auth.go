package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"shop/internal/mailer"
	"shop/internal/store"
	"shop/internal/token"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

type RegisterUserPayload struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// registerUserHandler creates an inactive account and emails an activation
// link. The account stays locked until the link is redeemed.
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &store.User{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
	}
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	activationToken := app.accountTokens.Make(token.Account{ID: user.ID, Email: user.Email, Active: user.IsActive})

	go func() {
		activationURL := fmt.Sprintf("%s/activate/%d/%s", app.config.frontendURL, user.ID, activationToken)
		vars := struct {
			Username      string
			ActivationURL string
			TTLHours      int
		}{
			Username:      user.FirstName,
			ActivationURL: activationURL,
			TTLHours:      int(app.config.mail.exp.Hours()),
		}
		if _, err := app.mailer.Send(mailer.UserActivationTemplate, user.FirstName, user.Email, vars); err != nil {
			app.logger.Warnw("error sending activation email", "user_id", user.ID, "error", err)
		}
	}()

	if err := app.jsonResponse(w, http.StatusCreated, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

// activateUserHandler redeems an activation link. Activation flips the state
// the token hashes over, so the same link cannot activate twice.
func (app *application) activateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid user id"))
		return
	}
	tok := chi.URLParam(r, "token")

	ctx := r.Context()

	user, err := app.store.Users.GetByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	subject := token.Account{ID: user.ID, Email: user.Email, Active: user.IsActive}
	if user.IsActive || !app.accountTokens.Check(subject, tok) {
		app.badRequestResponse(w, r, fmt.Errorf("activation link is invalid or expired"))
		return
	}

	if err := app.store.Users.Activate(ctx, user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	user.IsActive = true

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateUserTokenPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       int64  `json:"user_id"`
}

func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	if !user.IsActive {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("account is not activated"))
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SaveRefreshToken(r.Context(), user.ID, hashToken(refreshToken)); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RefreshTokenPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	jwtToken, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	claims, _ := jwtToken.Claims.(jwt.MapClaims)
	userID, err := strconv.ParseInt(fmt.Sprintf("%.f", claims["sub"]), 10, 64)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	stored, err := app.store.Users.GetRefreshToken(r.Context(), userID)
	if err != nil || stored != hashToken(payload.RefreshToken) {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("refresh token is no longer valid"))
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(userID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SaveRefreshToken(r.Context(), userID, hashToken(refreshToken)); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       userID,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.store.Users.DeleteRefreshToken(r.Context(), user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "logged out"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RequestPasswordResetPayload struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// requestPasswordResetHandler always answers 200 so the endpoint cannot be
// used to probe which addresses have accounts.
func (app *application) requestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var payload RequestPasswordResetPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			app.internalServerError(w, r, err)
			return
		}
	} else {
		resetToken := app.accountTokens.Make(token.Account{ID: user.ID, Email: user.Email, Active: user.IsActive})
		go func() {
			resetURL := fmt.Sprintf("%s/password-reset/%d/%s", app.config.frontendURL, user.ID, resetToken)
			vars := struct {
				Username string
				ResetURL string
			}{
				Username: user.FirstName,
				ResetURL: resetURL,
			}
			if _, err := app.mailer.Send(mailer.ResetPasswordTemplate, user.FirstName, user.Email, vars); err != nil {
				app.logger.Warnw("error sending password reset email", "user_id", user.ID, "error", err)
			}
		}()
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "reset email sent if the account exists"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CompletePasswordResetPayload struct {
	UserID   int64  `json:"user_id" validate:"required"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (app *application) completePasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var payload CompletePasswordResetPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	user, err := app.store.Users.GetByID(ctx, payload.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	subject := token.Account{ID: user.ID, Email: user.Email, Active: user.IsActive}
	if !app.accountTokens.Check(subject, payload.Token) {
		app.badRequestResponse(w, r, fmt.Errorf("reset link is invalid or expired"))
		return
	}

	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := app.store.Users.UpdatePassword(ctx, user); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Changing the password ends any open session.
	if err := app.store.Users.DeleteRefreshToken(ctx, user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "password updated"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func hashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
