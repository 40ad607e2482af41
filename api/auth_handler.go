package api

import (
	"encoding/json"
	"net/http"

	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/service/identity"
)

type authHandler struct {
	svc identity.IService
}

type signUpRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h authHandler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid request body"))
		return
	}

	customer, err := h.svc.SignUp(r.Context(), identity.SignUpInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h authHandler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid request body"))
		return
	}

	token, err := h.svc.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"access": token})
}

func (h authHandler) profile(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	customer, err := h.svc.GetProfile(r.Context(), principal.CustomerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}
