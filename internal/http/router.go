package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/devnet/api/internal/repository"
	"github.com/devnet/api/internal/service/auth"
	"github.com/devnet/api/internal/service/post"
	"github.com/devnet/api/internal/service/profile"
	"github.com/devnet/api/pkg/config"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	auth     auth.Service
	profile  profile.Service
	post     post.Service
	cfg      config.APIConfig
	dbHealth func(context.Context) error
}

const healthCheckTimeout = 2 * time.Second

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, profileSvc profile.Service, postSvc post.Service, cfg config.APIConfig, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		auth:     authSvc,
		profile:  profileSvc,
		post:     postSvc,
		cfg:      cfg,
		dbHealth: dbHealth,
	}
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("/", r.audit(r.handleIndex))
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))
	r.mux.HandleFunc("/api/users", r.audit(r.handleUsers))
	r.mux.HandleFunc("/api/auth", r.audit(r.handleAuth))
	r.mux.HandleFunc("/api/profile", r.audit(r.handleProfile))
	r.mux.HandleFunc("/api/profile/", r.audit(r.handleProfileSubroutes))
	r.mux.HandleFunc("/api/posts", r.audit(r.handlePosts))
	r.mux.HandleFunc("/api/posts/", r.audit(r.handlePostSubroutes))
}

func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		r.notFound(w)
		return
	}
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("API running"))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{"status": "down", "error": err.Error()}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// handleUsers registers an account and returns a token.
func (r *Router) handleUsers(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeFieldErrors(w, []fieldError{{Msg: "invalid JSON body"}})
		return
	}
	if errs := validateRegistration(payload.Name, payload.Email, payload.Password); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	signed, err := r.auth.Register(req.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeFieldErrors(w, []fieldError{{Msg: "User with this email already exists"}})
			return
		}
		r.logger.Error("registration failed", "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": signed})
}

// handleAuth logs a user in (POST) or returns the authenticated account (GET).
func (r *Router) handleAuth(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		r.handleLogin(w, req)
	case http.MethodGet:
		r.requireAuth(r.handleMe)(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeFieldErrors(w, []fieldError{{Msg: "invalid JSON body"}})
		return
	}
	if errs := validateLogin(payload.Email, payload.Password); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	signed, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeMessage(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		r.logger.Error("login failed", "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": signed})
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.mustUserID(w, req)
	if !ok {
		return
	}
	user, err := r.auth.Me(req.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "not found")
			return
		}
		r.logger.Error("user lookup failed", "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleProfile lists all profiles (GET) or upserts the caller's (POST).
func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		profiles, err := r.profile.ListAll(req.Context())
		if err != nil {
			r.logger.Error("profile list failed", "error", err)
			writeServerError(w)
			return
		}
		writeJSON(w, http.StatusOK, profiles)
	case http.MethodPost:
		r.requireAuth(r.handleProfileUpsert)(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleProfileUpsert(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.mustUserID(w, req)
	if !ok {
		return
	}
	var payload struct {
		Status  string            `json:"status"`
		Website *string           `json:"website"`
		Skills  *string           `json:"skills"`
		Social  map[string]string `json:"social"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeFieldErrors(w, []fieldError{{Msg: "invalid JSON body"}})
		return
	}
	if strings.TrimSpace(payload.Status) == "" {
		writeFieldErrors(w, []fieldError{{Msg: "status is required"}})
		return
	}
	prof, err := r.profile.Upsert(req.Context(), userID, profile.UpsertInput{
		Status:  payload.Status,
		Website: payload.Website,
		Skills:  payload.Skills,
		Social:  payload.Social,
	})
	if err != nil {
		r.respondProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

func (r *Router) handleProfileSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/api/profile/")
	parts := strings.Split(trimmed, "/")
	switch {
	case len(parts) == 1 && parts[0] == "me":
		r.handleProfileMe(w, req)
	case len(parts) == 1 && parts[0] == "experience":
		if req.Method != http.MethodPut {
			r.methodNotAllowed(w)
			return
		}
		r.requireAuth(r.handleExperienceAdd)(w, req)
	case len(parts) == 2 && parts[0] == "experience" && parts[1] != "":
		if req.Method != http.MethodDelete {
			r.methodNotAllowed(w)
			return
		}
		r.requireAuth(func(w http.ResponseWriter, req *http.Request) {
			r.handleExperienceRemove(w, req, parts[1])
		})(w, req)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleProfileMe(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.requireAuth(func(w http.ResponseWriter, req *http.Request) {
			userID, ok := r.mustUserID(w, req)
			if !ok {
				return
			}
			prof, err := r.profile.Get(req.Context(), userID)
			if err != nil {
				r.respondProfileError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, prof)
		})(w, req)
	case http.MethodDelete:
		r.requireAuth(func(w http.ResponseWriter, req *http.Request) {
			userID, ok := r.mustUserID(w, req)
			if !ok {
				return
			}
			if err := r.profile.DeleteAccount(req.Context(), userID); err != nil {
				r.respondProfileError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"msg": "account deleted"})
		})(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleExperienceAdd(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.mustUserID(w, req)
	if !ok {
		return
	}
	var payload struct {
		Title       string     `json:"title"`
		Company     string     `json:"company"`
		Location    string     `json:"location"`
		From        time.Time  `json:"from"`
		To          *time.Time `json:"to"`
		Current     bool       `json:"current"`
		Description string     `json:"description"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeFieldErrors(w, []fieldError{{Msg: "invalid JSON body"}})
		return
	}
	var errs []fieldError
	if strings.TrimSpace(payload.Title) == "" {
		errs = append(errs, fieldError{Msg: "title is required"})
	}
	if strings.TrimSpace(payload.Company) == "" {
		errs = append(errs, fieldError{Msg: "company is required"})
	}
	if payload.From.IsZero() {
		errs = append(errs, fieldError{Msg: "from date is required"})
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	prof, err := r.profile.AddExperience(req.Context(), userID, profile.ExperienceInput{
		Title:       payload.Title,
		Company:     payload.Company,
		Location:    payload.Location,
		From:        payload.From,
		To:          payload.To,
		Current:     payload.Current,
		Description: payload.Description,
	})
	if err != nil {
		r.respondProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

func (r *Router) handleExperienceRemove(w http.ResponseWriter, req *http.Request, experienceID string) {
	userID, ok := r.mustUserID(w, req)
	if !ok {
		return
	}
	prof, err := r.profile.RemoveExperience(req.Context(), userID, experienceID)
	if err != nil {
		r.respondProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

// handlePosts lists all posts (GET) or creates one (POST).
func (r *Router) handlePosts(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		posts, err := r.post.List(req.Context())
		if err != nil {
			r.logger.Error("post list failed", "error", err)
			writeServerError(w)
			return
		}
		writeJSON(w, http.StatusOK, posts)
	case http.MethodPost:
		r.requireAuth(r.handlePostCreate)(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handlePostCreate(w http.ResponseWriter, req *http.Request) {
	userID, ok := r.mustUserID(w, req)
	if !ok {
		return
	}
	body, ok := r.decodePostBody(w, req)
	if !ok {
		return
	}
	created, err := r.post.Create(req.Context(), userID, body)
	if err != nil {
		r.respondPostError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (r *Router) handlePostSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/api/posts/")
	parts := strings.Split(trimmed, "/")
	switch {
	case len(parts) == 2 && parts[0] == "post" && parts[1] != "":
		r.handleSinglePost(w, req, parts[1])
	case len(parts) == 2 && parts[0] == "user" && parts[1] != "":
		r.handleUserPosts(w, req, parts[1])
	case len(parts) == 2 && parts[0] == "like" && parts[1] != "":
		r.likeRoute(w, req, parts[1], true)
	case len(parts) == 2 && parts[0] == "unlike" && parts[1] != "":
		r.likeRoute(w, req, parts[1], false)
	case len(parts) == 2 && parts[0] == "comment" && parts[1] != "":
		if req.Method != http.MethodPost {
			r.methodNotAllowed(w)
			return
		}
		r.requireAuth(func(w http.ResponseWriter, req *http.Request) {
			r.handleCommentAdd(w, req, parts[1])
		})(w, req)
	case len(parts) == 3 && parts[0] == "comment" && parts[1] != "" && parts[2] != "":
		if req.Method != http.MethodDelete {
			r.methodNotAllowed(w)
			return
		}
		r.requireAuth(func(w http.ResponseWriter, req *http.Request) {
			r.handleCommentRemove(w, req, parts[1], parts[2])
		})(w, req)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleSinglePost(w http.ResponseWriter, req *http.Request, postID string) {
	switch req.Method {
	case http.MethodGet:
		found, err := r.post.Get(req.Context(), postID)
		if err != nil {
			r.respondPostError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, found)
	case http.MethodPut:
		r.requireAuth(func(w http.ResponseWriter, req *http.Request) {
			userID, ok := r.mustUserID(w, req)
			if !ok {
				return
			}
			body, ok := r.decodePostBody(w, req)
			if !ok {
				return
			}
			updated, err := r.post.Edit(req.Context(), postID, userID, body)
			if err != nil {
				r.respondPostError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		})(w, req)
	case http.MethodDelete:
		r.requireAuth(func(w http.ResponseWriter, req *http.Request) {
			userID, ok := r.mustUserID(w, req)
			if !ok {
				return
			}
			if err := r.post.Delete(req.Context(), postID, userID); err != nil {
				r.respondPostError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"msg": "post removed"})
		})(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleUserPosts(w http.ResponseWriter, req *http.Request, userID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	posts, err := r.post.ListByAuthor(req.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "No posts found")
			return
		}
		r.logger.Error("user post list failed", "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (r *Router) likeRoute(w http.ResponseWriter, req *http.Request, postID string, like bool) {
	if req.Method != http.MethodPut {
		r.methodNotAllowed(w)
		return
	}
	r.requireAuth(func(w http.ResponseWriter, req *http.Request) {
		userID, ok := r.mustUserID(w, req)
		if !ok {
			return
		}
		var (
			updated any
			err     error
		)
		if like {
			updated, err = r.post.Like(req.Context(), postID, userID)
		} else {
			updated, err = r.post.Unlike(req.Context(), postID, userID)
		}
		if err != nil {
			r.respondPostError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	})(w, req)
}

func (r *Router) handleCommentAdd(w http.ResponseWriter, req *http.Request, postID string) {
	userID, ok := r.mustUserID(w, req)
	if !ok {
		return
	}
	body, ok := r.decodePostBody(w, req)
	if !ok {
		return
	}
	updated, err := r.post.AddComment(req.Context(), postID, userID, body)
	if err != nil {
		r.respondPostError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleCommentRemove(w http.ResponseWriter, req *http.Request, postID, commentID string) {
	userID, ok := r.mustUserID(w, req)
	if !ok {
		return
	}
	updated, err := r.post.RemoveComment(req.Context(), postID, commentID, userID)
	if err != nil {
		r.respondPostError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) decodePostBody(w http.ResponseWriter, req *http.Request) (string, bool) {
	var payload struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeFieldErrors(w, []fieldError{{Msg: "invalid JSON body"}})
		return "", false
	}
	if strings.TrimSpace(payload.Body) == "" {
		writeFieldErrors(w, []fieldError{{Msg: "Post body cannot be empty"}})
		return "", false
	}
	return payload.Body, true
}

// mustUserID pulls the authenticated identity out of the context; a miss
// means the middleware was bypassed, which is a server bug.
func (r *Router) mustUserID(w http.ResponseWriter, req *http.Request) (string, bool) {
	userID, ok := userIDFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing", "path", req.URL.Path)
		writeMessage(w, http.StatusInternalServerError, "authorization context missing")
		return "", false
	}
	return userID, true
}

func (r *Router) respondPostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, post.ErrEmptyBody):
		writeFieldErrors(w, []fieldError{{Msg: "Post body cannot be empty"}})
	case errors.Is(err, post.ErrAlreadyLiked):
		writeMessage(w, http.StatusBadRequest, "Post already liked")
	case errors.Is(err, post.ErrNotAuthorized):
		writeMessage(w, http.StatusUnauthorized, "not authorized")
	case errors.Is(err, repository.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "No post found")
	default:
		r.logger.Error("post operation failed", "error", err)
		writeServerError(w)
	}
}

func (r *Router) respondProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrNoProfile):
		writeMessage(w, http.StatusBadRequest, "this user does not have a profile")
	case errors.Is(err, repository.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	default:
		r.logger.Error("profile operation failed", "error", err)
		writeServerError(w)
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeMessage(w, http.StatusNotFound, "not found")
}

// audit logs every request with its status, size and resolved actor.
func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		actor := "anonymous"
		if userID, ok := userIDFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", userID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
