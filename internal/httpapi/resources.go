package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"pazaauto.id/internal/audit"
	"pazaauto.id/internal/auth"
	"pazaauto.id/internal/entity"
	"pazaauto.id/internal/store"
)

type identified interface {
	EntityID() int64
}

type resourceOptions struct {
	// partialUpdate relaxes required fields on PUT for resources that merge patches.
	partialUpdate bool
	// extra mounts additional static routes under the resource.
	extra func(r chi.Router)
}

type resource[T any] struct {
	api  *API
	svc  *entity.Service[T, int64]
	opts resourceOptions
}

// mountResource registers the CRUD and listing routes of svc under /<name>.
func mountResource[T any](r chi.Router, a *API, svc *entity.Service[T, int64], opts resourceOptions) {
	res := &resource[T]{api: a, svc: svc, opts: opts}
	name := svc.Name()
	read := a.requirePermission(name, auth.ActionRead)
	write := a.requirePermission(name, auth.ActionWrite)

	r.Route("/"+name, func(r chi.Router) {
		r.With(read).Get("/", res.list)
		r.With(read).Get("/all", res.all)
		r.With(read).Get("/search", res.search)
		if opts.extra != nil {
			opts.extra(r)
		}
		r.With(read).Get("/{id}", res.get)
		r.With(write).Post("/", res.create)
		r.With(write).Put("/{id}", res.update)
		r.With(write).Delete("/{id}", res.remove)
	})
}

func (res *resource[T]) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parseInt(q.Get("page"), 1)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "page "+err.Error())
		return
	}
	rows, err := parseInt(q.Get("rowsPerPage"), entity.DefaultRowsPerPage)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "rowsPerPage "+err.Error())
		return
	}
	desc, err := parseBool(q.Get("descending"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "descending "+err.Error())
		return
	}
	resp, err := res.svc.FindPaginated(r.Context(), entity.PageRequest{
		Page:        page,
		RowsPerPage: rows,
		Search:      q.Get("search"),
		SortBy:      q.Get("sortBy"),
		Descending:  desc,
	})
	if err != nil {
		res.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

func (res *resource[T]) all(w http.ResponseWriter, r *http.Request) {
	rows, err := res.svc.FindAll(r.Context())
	if err != nil {
		res.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rows)
}

func (res *resource[T]) search(w http.ResponseWriter, r *http.Request) {
	rows, err := res.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		res.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rows)
}

func (res *resource[T]) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	e, err := res.svc.FindByID(r.Context(), id)
	if err != nil {
		res.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

func (res *resource[T]) create(w http.ResponseWriter, r *http.Request) {
	var in T
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := res.api.validate.Struct(in); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}
	created, err := res.svc.Create(r.Context(), &in)
	if err != nil {
		res.handleError(w, r, err)
		return
	}
	res.audit(r, "create", created)
	writeData(w, http.StatusCreated, created)
}

func (res *resource[T]) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var patch T
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := res.validateUpdate(patch); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}
	updated, err := res.svc.Update(r.Context(), id, patch)
	if err != nil {
		res.handleError(w, r, err)
		return
	}
	res.audit(r, "update", updated)
	writeData(w, http.StatusOK, updated)
}

func (res *resource[T]) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := res.svc.Delete(r.Context(), id); err != nil {
		res.handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), res.svc.Name()+".delete", map[string]any{"id": id})
	writeMessage(w, http.StatusOK, "Deleted successfully")
}

// validateUpdate drops required-field failures for merging resources.
func (res *resource[T]) validateUpdate(patch T) error {
	err := res.api.validate.Struct(patch)
	if err == nil || !res.opts.partialUpdate {
		return err
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	kept := verrs[:0]
	for _, fe := range verrs {
		if fe.Tag() != "required" {
			kept = append(kept, fe)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func (res *resource[T]) audit(r *http.Request, action string, e T) {
	fields := map[string]any{}
	if ent, ok := any(e).(identified); ok {
		fields["id"] = ent.EntityID()
	}
	_ = audit.LogEvent(r.Context(), res.svc.Name()+"."+action, fields)
}

func (res *resource[T]) handleError(w http.ResponseWriter, r *http.Request, err error) {
	handleEntityError(res.api, w, r, res.svc.Name(), err)
}

func handleEntityError(a *API, w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		writeError(w, r, http.StatusNotFound, strings.TrimSuffix(name, "s")+" not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, r, http.StatusConflict, "conflicts with an existing record")
	default:
		a.log.Error("entity request failed", "resource", name,
			"request_id", RequestIDFromContext(r.Context()), "error", err.Error())
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) handleUnregisteredEmployees(w http.ResponseWriter, r *http.Request) {
	rows, err := a.catalog.EmployeeDirectory.ListUnregistered(r.Context())
	if err != nil {
		handleEntityError(a, w, r, "employees", err)
		return
	}
	writeData(w, http.StatusOK, rows)
}

func (a *API) handleVehicleBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := a.catalog.VehicleCatalog.Brands(r.Context())
	if err != nil {
		handleEntityError(a, w, r, "vehicles", err)
		return
	}
	writeData(w, http.StatusOK, brands)
}

func (a *API) handleVehicleKinds(w http.ResponseWriter, r *http.Request) {
	kinds, err := a.catalog.VehicleCatalog.Kinds(r.Context(), r.URL.Query().Get("brand"))
	if err != nil {
		handleEntityError(a, w, r, "vehicles", err)
		return
	}
	writeData(w, http.StatusOK, kinds)
}
