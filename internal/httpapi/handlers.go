package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tamirms/commonpass"
	"github.com/tamirms/commonpass/bloom"
)

// Checker is the part of *commonpass.Checker the handlers use.
type Checker interface {
	IsCommon(password string) commonpass.Result
	Loaded() (commonpass.Info, bool)
}

// ReloadFunc re-initializes the checker from its configuration.
type ReloadFunc func(ctx context.Context) error

// Handler serves the query endpoints.
type Handler struct {
	Checker Checker
	Reload  ReloadFunc // nil disables POST /v1/reload
}

type checkRequest struct {
	Password *string `json:"password"`
}

// VersionInfo is the body of GET /v1/version.
type VersionInfo struct {
	Version   string    `json:"version"`
	Tier      string    `json:"tier"`
	Location  string    `json:"location"`
	LoadedAt  time.Time `json:"loaded_at"`
	BitSize   uint64    `json:"bit_size"`
	HashCount uint32    `json:"hash_count"`
	ExpectedN int64     `json:"expected_n"`
	FPR       bloom.FPR `json:"fpr"`
	Locale    string    `json:"locale,omitempty"`
}

func versionInfo(info commonpass.Info) VersionInfo {
	return VersionInfo{
		Version:   info.Version,
		Tier:      info.Tier,
		Location:  info.Location,
		LoadedAt:  info.LoadedAt.UTC(),
		BitSize:   info.Header.BitSize,
		HashCount: info.Header.HashCount,
		ExpectedN: info.Header.ExpectedN,
		FPR:       info.Header.FPR,
		Locale:    info.Header.Locale,
	}
}

// Check handles POST /v1/check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(w, r, &Error{Code: "PAYLOAD_TOO_LARGE", Message: "request body too large", Status: http.StatusRequestEntityTooLarge})
			return
		}
		RespondError(w, r, validationError("invalid JSON body"))
		return
	}
	if req.Password == nil {
		RespondError(w, r, validationError("password is required"))
		return
	}
	RespondJSON(w, r, http.StatusOK, h.Checker.IsCommon(*req.Password))
}

// Version handles GET /v1/version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	info, ok := h.Checker.Loaded()
	if !ok {
		RespondError(w, r, notLoadedError())
		return
	}
	RespondJSON(w, r, http.StatusOK, versionInfo(info))
}

// ReloadFilter handles POST /v1/reload. A failed reload keeps the current
// filter and reports 500.
func (h *Handler) ReloadFilter(w http.ResponseWriter, r *http.Request) {
	if err := h.Reload(r.Context()); err != nil {
		RespondError(w, r, internalError("reload failed: "+err.Error()))
		return
	}
	h.Version(w, r)
}

// Healthz is a liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports ready once a filter is loaded.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.Checker.Loaded(); !ok {
		RespondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	RespondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
