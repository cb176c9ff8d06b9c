package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcmotd/internal/address"
	"github.com/woozymasta/mcmotd/internal/models"
	"github.com/woozymasta/mcmotd/internal/report"
	"github.com/woozymasta/mcmotd/internal/vars"
)

// motdResponse is the JSON form of a status query (?format=json).
type motdResponse struct {
	Result models.Result `json:"result"`
	Text   string        `json:"text"`
}

// messageResponse is the JSON form of every non-report answer.
type messageResponse struct {
	Binding *models.GroupBinding `json:"binding,omitempty"`
	Error   string               `json:"error,omitempty"`
	Text    string               `json:"text"`
}

// handleMotd parses the server query param, resolves it and renders the report.
// Query params: ?server=mc.example.com:19132[&lang=en][&format=json]
func (s *Server) handleMotd(w http.ResponseWriter, r *http.Request) {
	lang := s.requestLang(r)

	addr, err := address.Parse(r.URL.Query().Get("server"))
	if err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("Invalid address")
		s.respondMessage(w, r, http.StatusBadRequest, "invalid_address", report.RenderInvalidAddress(lang), nil)
		return
	}

	s.resolveAndRespond(w, r, addr, lang)
}

// handleGroupMotd resolves the server bound to the group in the path.
func (s *Server) handleGroupMotd(w http.ResponseWriter, r *http.Request) {
	lang := s.requestLang(r)

	binding, ok := s.loadBinding(w, r, lang)
	if !ok {
		return
	}

	s.resolveAndRespond(w, r, binding.Address, lang)
}

// handleGetBinding shows the server bound to the group in the path.
func (s *Server) handleGetBinding(w http.ResponseWriter, r *http.Request) {
	lang := s.requestLang(r)

	binding, ok := s.loadBinding(w, r, lang)
	if !ok {
		return
	}

	s.respondMessage(w, r, http.StatusOK, "", report.RenderBound(binding.Address, lang), binding)
}

// handleBind binds the group in the path to the server given as query or form value.
// Query params or form body: server=mc.example.com:19132
func (s *Server) handleBind(w http.ResponseWriter, r *http.Request) {
	lang := s.requestLang(r)
	group := r.PathValue("group")

	if !s.groupServed(group) {
		s.respondMessage(w, r, http.StatusNotFound, "group_not_served", report.RenderNotServed(lang), nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	addr, err := address.Parse(r.FormValue("server"))
	if err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Str("group", group).Msg("Invalid address for binding")
		s.respondMessage(w, r, http.StatusBadRequest, "invalid_address", report.RenderInvalidAddress(lang), nil)
		return
	}

	binding := models.GroupBinding{GroupID: group, Address: addr, UpdatedAt: time.Now().UTC()}
	if err := s.bindings.PutBinding(r.Context(), binding); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("group", group).Msg("Failed to save binding")
		s.respondMessage(w, r, http.StatusInternalServerError, "storage", report.RenderInternalError(lang), nil)
		return
	}

	log.Ctx(r.Context()).Info().
		Str("group", group).
		Str("address", addr.String()).
		Msg("Group server bound")

	s.respondMessage(w, r, http.StatusOK, "", report.RenderBound(addr, lang), &binding)
}

// handleUnbind removes the binding of the group in the path.
func (s *Server) handleUnbind(w http.ResponseWriter, r *http.Request) {
	lang := s.requestLang(r)
	group := r.PathValue("group")

	if !s.groupServed(group) {
		s.respondMessage(w, r, http.StatusNotFound, "group_not_served", report.RenderNotServed(lang), nil)
		return
	}

	deleted, err := s.bindings.DeleteBinding(r.Context(), group)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("group", group).Msg("Failed to delete binding")
		s.respondMessage(w, r, http.StatusInternalServerError, "storage", report.RenderInternalError(lang), nil)
		return
	}
	if !deleted {
		s.respondMessage(w, r, http.StatusNotFound, "not_bound", report.RenderNotBound(lang), nil)
		return
	}

	log.Ctx(r.Context()).Info().Str("group", group).Msg("Group server unbound")
	s.respondMessage(w, r, http.StatusOK, "", report.RenderUnbound(lang), nil)
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, vars.Info())
}

// loadBinding fetches the binding for the path group, writing the error response itself
// when the group is filtered out, unbound, or the store fails.
func (s *Server) loadBinding(w http.ResponseWriter, r *http.Request, lang report.Lang) (*models.GroupBinding, bool) {
	group := r.PathValue("group")

	if !s.groupServed(group) {
		s.respondMessage(w, r, http.StatusNotFound, "group_not_served", report.RenderNotServed(lang), nil)
		return nil, false
	}

	binding, err := s.bindings.GetBinding(r.Context(), group)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("group", group).Msg("Failed to load binding")
		s.respondMessage(w, r, http.StatusInternalServerError, "storage", report.RenderInternalError(lang), nil)
		return nil, false
	}
	if binding == nil {
		s.respondMessage(w, r, http.StatusNotFound, "not_bound", report.RenderNotBound(lang), nil)
		return nil, false
	}

	return binding, true
}

// resolveAndRespond runs the resolver and writes the rendered result.
// Failures are a normal outcome and are answered with 200 like reports.
func (s *Server) resolveAndRespond(w http.ResponseWriter, r *http.Request, addr models.ServerAddress, lang report.Lang) {
	res := s.resolver.Resolve(r.Context(), addr)
	text := report.Render(res, lang)

	event := log.Ctx(r.Context()).Info().Str("address", addr.String()).Bool("online", res.OK())
	if res.Failure != nil {
		event = event.Str("reason", string(res.Failure.Reason))
	}
	event.Msg("Status resolved")

	if wantsJSON(r) {
		respondJSON(w, http.StatusOK, motdResponse{Result: res, Text: text})
		return
	}

	respondText(w, http.StatusOK, text)
}

// requestLang picks ?lang=, then Accept-Language, then the configured default.
func (s *Server) requestLang(r *http.Request) report.Lang {
	if q := r.URL.Query().Get("lang"); q != "" {
		return report.ParseLang(q, s.lang)
	}

	return report.MatchLang(r.Header.Get("Accept-Language"), s.lang)
}

func (s *Server) respondMessage(w http.ResponseWriter, r *http.Request, status int, code, text string, binding *models.GroupBinding) {
	if wantsJSON(r) {
		respondJSON(w, status, messageResponse{Error: code, Text: text, Binding: binding})
		return
	}

	respondText(w, status, text)
}

func wantsJSON(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "json")
}

// respondText writes a text/plain answer, the form chat bots forward as-is.
func respondText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write JSON response")
	}
}
