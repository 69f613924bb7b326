package authz

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// ResolvedTeam is the full context of the caller's selected team.
type ResolvedTeam struct {
	Team   Team
	Access TeamAccess
}

// ActiveTeamManager persists the caller's selected team in a long-lived
// cookie. The cookie value is client-held state and is never trusted: every
// read and write re-validates access before acting on it.
type ActiveTeamManager struct {
	service    *Service
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewActiveTeamManager constructs an ActiveTeamManager.
func NewActiveTeamManager(service *Service, cookieName string, ttl time.Duration, secure bool) *ActiveTeamManager {
	return &ActiveTeamManager{
		service:    service,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Set validates that the caller may access the team and then persists the
// selection. On denial the stored selection is left untouched.
func (m *ActiveTeamManager) Set(ctx context.Context, w http.ResponseWriter, id Identity, teamID int64) (ResolvedTeam, error) {
	access, err := m.service.RequireTeamAccess(ctx, id, teamID)
	if err != nil {
		return ResolvedTeam{}, err
	}
	team, err := m.service.store.FindTeam(ctx, teamID)
	if err != nil {
		return ResolvedTeam{}, err
	}
	m.write(w, teamID)
	return ResolvedTeam{Team: team, Access: access}, nil
}

// Resolve returns the caller's active team. A stale or inaccessible cookie
// falls back to the user's first team by membership; the fallback is
// persisted as the new selection. Returns ErrNotFound when the user belongs
// to no team at all.
func (m *ActiveTeamManager) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request, id Identity) (ResolvedTeam, error) {
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		if teamID, parseErr := strconv.ParseInt(cookie.Value, 10, 64); parseErr == nil && teamID > 0 {
			access, accessErr := m.service.RequireTeamAccess(ctx, id, teamID)
			if accessErr == nil {
				team, teamErr := m.service.store.FindTeam(ctx, teamID)
				if teamErr == nil {
					return ResolvedTeam{Team: team, Access: access}, nil
				}
			}
		}
	}

	first, err := m.service.store.FirstTeamFor(ctx, id.UserID)
	if err != nil {
		return ResolvedTeam{}, err
	}
	if first == nil {
		return ResolvedTeam{}, ErrNotFound
	}
	access, err := m.service.RequireTeamAccess(ctx, id, first.ID)
	if err != nil {
		return ResolvedTeam{}, err
	}
	m.write(w, first.ID)
	return ResolvedTeam{Team: *first, Access: access}, nil
}

// Clear removes the stored selection, used on sign-out.
func (m *ActiveTeamManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieName returns the cookie identifier for the selection.
func (m *ActiveTeamManager) CookieName() string {
	return m.cookieName
}

func (m *ActiveTeamManager) write(w http.ResponseWriter, teamID int64) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    strconv.FormatInt(teamID, 10),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(m.ttl),
	})
}
