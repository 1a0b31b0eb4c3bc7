package app

import (
	"context"
	"fmt"
	"strings"

	"fincontrol/internal/core"
	"fincontrol/internal/store"
)

// Supported interface languages.
const (
	LangPortuguese = "pt-BR"
	LangEnglish    = "en-US"
)

// ValidLanguage reports whether lang is a supported language tag.
func ValidLanguage(lang string) bool {
	return lang == LangPortuguese || lang == LangEnglish
}

// Language returns the persisted interface language.
func (s *Service) Language(ctx context.Context) (string, error) {
	lang, err := s.store.Language(ctx)
	if err != nil {
		return "", &store.Error{Op: "load language", Err: err}
	}
	return lang, nil
}

// SetLanguage persists the interface language.
func (s *Service) SetLanguage(ctx context.Context, lang string) error {
	if !ValidLanguage(lang) {
		return &ValidationError{Err: fmt.Errorf("unsupported language %q", lang)}
	}
	if err := s.store.SaveLanguage(ctx, lang); err != nil {
		return &store.Error{Op: "save language", Err: err}
	}
	return nil
}

// ProfileInput carries the editable profile fields. Empty fields keep the
// current value.
type ProfileInput struct {
	Name     string
	Nickname string
	Avatar   string
}

// UpdateProfile persists profile changes and refreshes the session's user.
func (s *Session) UpdateProfile(ctx context.Context, in ProfileInput) (core.User, error) {
	s.mu.Lock()
	updated := s.user
	s.mu.Unlock()

	if name := strings.TrimSpace(in.Name); name != "" {
		updated.Name = name
	}
	if nick := strings.TrimSpace(in.Nickname); nick != "" {
		updated.Nickname = nick
	}
	if avatar := strings.TrimSpace(in.Avatar); avatar != "" {
		updated.Avatar = avatar
	}

	if err := s.svc.store.UpdateUser(ctx, updated); err != nil {
		return core.User{}, &store.Error{Op: "update user", Err: err}
	}

	s.mu.Lock()
	s.user = updated
	s.mu.Unlock()
	return updated, nil
}
