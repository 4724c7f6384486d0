/* Copyright 2025 Parishkeep Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/parishkeep/parishkeep/pkg/server/app"
	mw "github.com/parishkeep/parishkeep/pkg/server/middleware"
	"github.com/parishkeep/parishkeep/pkg/server/presenters"
	"github.com/pkg/errors"
)

// maxChangePageSize is the max number of change feed entries per response
const maxChangePageSize = 100

// NewDocs creates a new Docs controller.
func NewDocs(app *app.App) *Docs {
	return &Docs{
		app: app,
	}
}

// Docs is a controller for the document endpoints
type Docs struct {
	app *app.App
}

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		mw.DoError(w, "encoding response", err, http.StatusInternalServerError)
	}
}

// Get handles GET /v1/collections/{collection}/docs/{docID}
func (d *Docs) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collection := vars["collection"]
	docID := vars["docID"]

	doc, err := d.app.GetDocument(collection, docID)
	if errors.Is(err, app.ErrDocumentNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	} else if err != nil {
		mw.DoError(w, "getting document", err, http.StatusInternalServerError)
		return
	}

	presented, err := presenters.PresentDocument(doc)
	if err != nil {
		mw.DoError(w, "presenting document", err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, presented)
}

type putDocPayload struct {
	Kind    string                 `json:"kind"`
	Fields  map[string]interface{} `json:"fields"`
	Version int                    `json:"version"`
}

type putDocResponse struct {
	ServerTimestamp int64 `json:"server_timestamp"`
}

// Put handles PUT /v1/collections/{collection}/docs/{docID}
func (d *Docs) Put(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collection := vars["collection"]
	docID := vars["docID"]

	expectedTS, err := strconv.ParseInt(r.URL.Query().Get("expected_ts"), 10, 64)
	if err != nil {
		http.Error(w, "invalid expected_ts", http.StatusBadRequest)
		return
	}

	var payload putDocPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.Kind == "" {
		http.Error(w, "kind is required", http.StatusBadRequest)
		return
	}

	fields, err := json.Marshal(payload.Fields)
	if err != nil {
		mw.DoError(w, "encoding fields", err, http.StatusInternalServerError)
		return
	}

	doc, err := d.app.PutDocument(app.PutDocumentParams{
		Collection:        collection,
		DocID:             docID,
		Kind:              payload.Kind,
		Fields:            string(fields),
		Version:           payload.Version,
		ExpectedTimestamp: expectedTS,
	})
	if errors.Is(err, app.ErrTimestampMismatch) {
		http.Error(w, "document changed since it was read", http.StatusConflict)
		return
	} else if err != nil {
		mw.DoError(w, "writing document", err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, putDocResponse{ServerTimestamp: doc.ServerTimestamp})
}

type changesResponse struct {
	Changes []presenters.Change `json:"changes"`
}

// Changes handles GET /v1/collections/{collection}/changes
func (d *Docs) Changes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collection := vars["collection"]

	var afterSeq int64
	if raw := r.URL.Query().Get("after_seq"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid after_seq", http.StatusBadRequest)
			return
		}
		afterSeq = parsed
	}

	changes, err := d.app.ListChanges(collection, afterSeq, maxChangePageSize)
	if err != nil {
		mw.DoError(w, "listing changes", err, http.StatusInternalServerError)
		return
	}

	presented, err := presenters.PresentChanges(changes)
	if err != nil {
		mw.DoError(w, "presenting changes", err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, changesResponse{Changes: presented})
}
