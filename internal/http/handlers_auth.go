package http

import (
	"net/http"

	"fincontrol/internal/app"
	"fincontrol/internal/core"
)

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  userJSON `json:"user"`
	Token string   `json:"token"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.auth.SignUp(r.Context(), req.Email, req.Password, core.User{
		Name:     req.Name,
		Nickname: req.Nickname,
		Avatar:   req.Avatar,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	token, err := s.auth.IssueToken(user)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{User: toUserJSON(user), Token: token})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	token, err := s.auth.IssueToken(user)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: toUserJSON(user), Token: token})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if err := s.auth.SignOut(r.Context()); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.svc.Close(sess.User().ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserJSON(s.session(r).User()))
}

type profileRequest struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.session(r).UpdateProfile(r.Context(), app.ProfileInput{
		Name:     req.Name,
		Nickname: req.Nickname,
		Avatar:   req.Avatar,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(user))
}
