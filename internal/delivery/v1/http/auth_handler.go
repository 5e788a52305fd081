package http

import (
	"net/http"

	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
)

type AuthHandler struct {
	authUsecase usecase.AuthUC
	logger      logger.Logger
}

func NewAuthHandler(authUsecase usecase.AuthUC, logger logger.Logger) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase, logger: logger}
}

// register
//
//	@Summary	Регистрация покупателя
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		registerRequest	true	"Данные пользователя"
//	@Success	201		{object}	authResponse
//	@Failure	409		{object}	ErrorResponse	"Email уже занят"
//	@Failure	422		{object}	ErrorResponse	"Ошибка валидации"
//	@Router		/auth/register [post]
func (a *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logError(a.logger, r, err)
		WriteError(w, err)
		return
	}

	res, err := a.authUsecase.Register(r.Context(), &usecase.RegisterReq{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		logError(a.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toAuthResponse(res))
}

// login
//
//	@Summary	Вход по email и паролю
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		loginRequest	true	"Учётные данные"
//	@Success	200		{object}	authResponse
//	@Failure	401		{object}	ErrorResponse	"Неверные учётные данные"
//	@Router		/auth/login [post]
func (a *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logError(a.logger, r, err)
		WriteError(w, err)
		return
	}

	res, err := a.authUsecase.Login(r.Context(), &usecase.LoginReq{Email: req.Email, Password: req.Password})
	if err != nil {
		logError(a.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toAuthResponse(res))
}

// refresh
//
//	@Summary	Перевыпуск токена
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	authResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/auth/refresh [post]
func (a *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	token, _ := bearerToken(r)
	if token == "" {
		WriteError(w, e.ErrUnauthorized)
		return
	}

	res, err := a.authUsecase.Refresh(r.Context(), token)
	if err != nil {
		logError(a.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toAuthResponse(res))
}

// me
//
//	@Summary	Текущий пользователь
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	userResponse
//	@Router		/auth/me [get]
func (a *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	WriteSuccess(w, http.StatusOK, toUserResponse(user))
}

// logout ничего не хранит на сервере: токен stateless и просто выбрасывается клиентом.
func (a *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
