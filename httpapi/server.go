package httpapi

import (
	"encoding/json"
	"net/http"

	goPerm "github.com/MrEthical07/goPerm"
	"github.com/MrEthical07/goPerm/claims"
	"github.com/MrEthical07/goPerm/middleware"
	"github.com/MrEthical07/goPerm/permission"
	"github.com/MrEthical07/goPerm/transport"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var (
	rolesModule   = permission.Simple("roles")
	usersModule   = permission.Simple("users")
	reportsModule = permission.Simple("reports")
)

// Server routes role API requests to a goPerm.Service.
type Server struct {
	svc      *goPerm.Service
	tokens   *claims.Manager
	validate *validator.Validate
	logger   *zap.Logger
	router   *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithTokens requires a bearer token verified by m on every route except
// GET /catalog, and enforces the per-route permission.
func WithTokens(m *claims.Manager) Option {
	return func(s *Server) { s.tokens = m }
}

// NewServer builds the router. The service logger is used for request errors.
func NewServer(svc *goPerm.Service, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		validate: validator.New(),
		logger:   svc.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/catalog", s.getCatalog).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	if s.tokens != nil {
		api.Use(middleware.Guard(s.tokens, s.svc.Codec()))
	}

	s.handle(api, "/roles", http.MethodGet, rolesModule, permission.ActionShow, s.listRoles)
	s.handle(api, "/roles", http.MethodPost, rolesModule, permission.ActionAdd, s.createRole)
	s.handle(api, "/roles/validate", http.MethodPost, rolesModule, permission.ActionShow, s.validateRole)
	s.handle(api, "/roles/{id}", http.MethodGet, rolesModule, permission.ActionShow, s.getRole)
	s.handle(api, "/roles/{id}", http.MethodPut, rolesModule, permission.ActionEdit, s.updateRole)
	s.handle(api, "/roles/{id}", http.MethodDelete, rolesModule, permission.ActionDelete, s.deleteRole)
	s.handle(api, "/users/{id}/permissions", http.MethodGet, usersModule, permission.ActionShow, s.userPermissions)
	s.handle(api, "/users/{id}/role", http.MethodPut, usersModule, permission.ActionRole, s.assignRole)
	s.handle(api, "/audit/roles", http.MethodGet, reportsModule, permission.ActionShow, s.auditRoles)

	return r
}

func (s *Server) handle(r *mux.Router, path, method string, key permission.ModuleKey, action permission.Action, h http.HandlerFunc) {
	var handler http.Handler = h
	if s.tokens != nil {
		handler = middleware.RequirePermission(key, action)(handler)
	}
	r.Handle(path, handler).Methods(method)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeFieldErrors(w, err)
		return false
	}
	return true
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := s.svc.Catalog()
	specs := catalog.Modules()
	resp := transport.CatalogResponse{
		Version: catalog.Version(),
		Modules: make([]transport.CatalogModule, 0, len(specs)),
	}
	for _, spec := range specs {
		resp.Modules = append(resp.Modules, transport.CatalogModule{
			Key:      spec.Key.String(),
			Page:     s.svc.Codec().PageName(spec.Key),
			Label:    spec.Label,
			Actions:  spec.Actions,
			Critical: spec.Critical,
			ReadOnly: spec.ReadOnly,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Store().List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) getRole(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Store().Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	s.submitRole(w, r, "", http.StatusCreated)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	s.submitRole(w, r, mux.Vars(r)["id"], http.StatusOK)
}

func (s *Server) submitRole(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req transport.RoleRequest
	if !s.decode(w, r, &req) {
		return
	}

	rep := s.svc.ValidateEntries(req.Permissions)
	if !rep.OK() {
		writeDiagnostics(w, permission.ErrValidationFailed.Error(), rep.Errors)
		return
	}
	set, err := s.svc.Decode(req.Permissions)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	rec, _, err := s.svc.SubmitRole(r.Context(), goPerm.RoleDraft{
		ID:          id,
		Name:        req.Name,
		Parent:      req.Parent,
		Description: req.Description,
		Permissions: set,
		Version:     req.Version,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	warnings := rep.Warnings
	if warnings == nil {
		warnings = []permission.Diagnostic{}
	}
	writeJSON(w, status, transport.RoleResponse{Role: *rec, Warnings: warnings})
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Store().Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validateRole(w http.ResponseWriter, r *http.Request) {
	var req transport.ValidateRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.ValidateEntries(req.Permissions))
}

func (s *Server) userPermissions(w http.ResponseWriter, r *http.Request) {
	set, err := s.svc.LoadUserPermissions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Encode(set))
}

func (s *Server) assignRole(w http.ResponseWriter, r *http.Request) {
	var req transport.AssignRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.svc.Store().AssignUser(r.Context(), mux.Vars(r)["id"], req.RoleID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) auditRoles(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.AuditRoles(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
