package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/mesh-intelligence/itemstore/internal/logging"
	"github.com/mesh-intelligence/itemstore/pkg/types"
)

// Greeting is the plain-text body served at the root path.
const Greeting = "Hello, World! Welcome to the In-Memory REST API."

// MsgServerError is the message of every 500 response.
const MsgServerError = "Something went wrong on the server."

// maxBodyBytes bounds JSON request bodies on write endpoints.
const maxBodyBytes = 100 << 10

// ItemHandlers serves the item API over a Store.
type ItemHandlers struct {
	store types.Store
	log   logging.Logger
}

// Compile-time interface check.
var _ Handlers = (*ItemHandlers)(nil)

// NewItemHandlers creates handlers backed by store.
func NewItemHandlers(store types.Store, logger logging.Logger) *ItemHandlers {
	if store == nil {
		panic("NewItemHandlers: store cannot be nil")
	}
	return &ItemHandlers{store: store, log: logger.WithComponent("items")}
}

// messageBody is the JSON shape of 4xx responses.
type messageBody struct {
	Message string `json:"message"`
}

// errorBody is the JSON shape of 500 responses.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// HandleRoot serves the greeting.
func (h *ItemHandlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, Greeting)
}

// HandleHealth reports liveness and the current item count.
func (h *ItemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "items": len(items)})
}

// HandleListItems returns every item.
func (h *ItemHandlers) HandleListItems(w http.ResponseWriter, r *http.Request) {
	h.log.Info(r.Context(), "GET /items - Retrieving all items")
	items, err := h.store.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleGetItem returns one item by ID.
func (h *ItemHandlers) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.log.Info(r.Context(), fmt.Sprintf("GET /items/%s - Retrieving item by ID", id))
	it, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// HandleCreateItem creates an item from the request body.
func (h *ItemHandlers) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info(r.Context(), "POST /items - Creating new item", "payload", fields)
	it, err := h.store.Create(r.Context(), fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// HandleUpdateItem merges the request body over an existing item.
func (h *ItemHandlers) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	patch, err := readFields(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info(r.Context(), fmt.Sprintf("PUT /items/%s - Updating item with data", id), "patch", patch)
	it, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// HandleDeleteItem removes an item.
func (h *ItemHandlers) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.log.Info(r.Context(), fmt.Sprintf("DELETE /items/%s - Deleting item by ID", id))
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleNotFound answers every request no route matched.
func (h *ItemHandlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, messageBody{
		Message: fmt.Sprintf("Route %s not found.", r.URL.RequestURI()),
	})
}

// readFields decodes an application/json request body. Bodies of any other
// content type, and empty bodies, read as the empty object. Unreadable or
// malformed JSON is a server fault, not a validation failure.
func readFields(w http.ResponseWriter, r *http.Request) (types.Fields, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return types.Fields{}, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	fields, err := types.ParseBody(body)
	if err != nil {
		return nil, fmt.Errorf("parsing request body: %w", err)
	}
	return fields, nil
}

// statusFor maps a store error to its HTTP status.
func statusFor(err error) int {
	switch {
	case types.IsValidation(err):
		return http.StatusBadRequest
	case types.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the response for err. Caller faults carry their message;
// anything else is logged and reported as a server error.
func (h *ItemHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(r.Context(), err, "request failed", "method", r.Method, "path", r.URL.RequestURI())
		writeInternalError(w, err)
		return
	}
	h.log.Debug(r.Context(), "request rejected", "status", status, "reason", err.Error())
	writeJSON(w, status, messageBody{Message: err.Error()})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, errorBody{Message: MsgServerError, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorBody{Message: MsgServerError, Error: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}
