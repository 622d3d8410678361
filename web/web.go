// Package web serves the tune book over HTTP: an embedded page and a JSON API
// that dispatches app events and returns the resulting view.
package web

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jsphweid/ceol/abc"
	"github.com/jsphweid/ceol/app"
	"github.com/jsphweid/ceol/midi"
	"github.com/jsphweid/ceol/model"
	"github.com/jsphweid/ceol/view"
	"github.com/rs/cors"
)

//go:embed index.html
var indexPage []byte

const maxBodyBytes = 1 << 20

type Server struct {
	app    *app.App
	rec    *view.Recorder
	logger *log.Logger
}

type ViewResponse struct {
	View  view.Snapshot `json:"view"`
	State app.State     `json:"state"`
}

func NewServer(a *app.App, rec *view.Recorder, logger *log.Logger) *Server {
	return &Server{app: a, rec: rec, logger: logger}
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/view", s.handleView).Methods(http.MethodGet)
	api.HandleFunc("/tunes", s.handleListTunes).Methods(http.MethodGet)
	api.HandleFunc("/tunes", s.handleAddTune).Methods(http.MethodPost)
	api.HandleFunc("/tunes/{id}/midi", s.handleMidi).Methods(http.MethodGet)
	api.HandleFunc("/prev", s.dispatch(app.PrevPage{})).Methods(http.MethodPost)
	api.HandleFunc("/next", s.dispatch(app.NextPage{})).Methods(http.MethodPost)
	api.HandleFunc("/open/{index}", s.handleOpen).Methods(http.MethodPost)
	api.HandleFunc("/play", s.dispatch(app.TogglePlayback{})).Methods(http.MethodPost)
	api.HandleFunc("/stop", s.dispatch(app.StopPlayback{})).Methods(http.MethodPost)
	api.HandleFunc("/instrument", s.handleInstrument).Methods(http.MethodPut)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/preview", s.handlePreview).Methods(http.MethodPost)
	api.HandleFunc("/document", s.handleDocument).Methods(http.MethodPost)
	api.HandleFunc("/section", s.handleSection).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("could not encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func (s *Server) writeView(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, ViewResponse{View: s.rec.Snapshot(), State: s.app.State()})
}

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("could not unmarshal request body: %w", err)
	}
	return nil
}

func (s *Server) dispatch(ev app.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.app.Dispatch(r.Context(), ev)
		s.writeView(w)
	}
}

// handle decodes the body into T and dispatches the event built from it.
func handle[T any](s *Server, build func(body T) (app.Event, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body T
		if err := decode(r, &body); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ev, err := build(body)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.app.Dispatch(r.Context(), ev)
		s.writeView(w)
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.writeView(w)
}

func (s *Server) handleListTunes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.app.Store().Search(r.URL.Query().Get("q")))
}

func (s *Server) handleAddTune(w http.ResponseWriter, r *http.Request) {
	handle(s, func(b model.AddTuneRequestBody) (app.Event, error) {
		if strings.TrimSpace(b.Notation) == "" {
			return nil, errors.New("notation is empty")
		}
		return app.ApplyNotation{Title: b.Title, Type: b.Type, Notation: b.Notation}, nil
	})(w, r)
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	s.app.Dispatch(r.Context(), app.OpenTune{Index: i})
	s.writeView(w)
}

func (s *Server) handleInstrument(w http.ResponseWriter, r *http.Request) {
	handle(s, func(b model.InstrumentRequestBody) (app.Event, error) {
		return app.SelectInstrument{Instrument: model.ParseInstrument(b.Instrument)}, nil
	})(w, r)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	handle(s, func(b model.SearchRequestBody) (app.Event, error) {
		return app.Search{Query: b.Query}, nil
	})(w, r)
}

// handlePreview answers with the preview of this edit, without waiting for
// the debounce.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var body model.PreviewRequestBody
	if err := decode(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.app.Dispatch(r.Context(), app.EditNotation{Notation: body.Notation})
	s.app.FlushPreview()
	s.writeView(w)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	handle(s, func(b model.DocumentRequestBody) (app.Event, error) {
		return app.OpenDocument{URL: b.URL}, nil
	})(w, r)
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	handle(s, func(b model.SectionRequestBody) (app.Event, error) {
		sec, ok := app.ParseSection(b.Section)
		if !ok {
			return nil, fmt.Errorf("unknown section %q", b.Section)
		}
		return app.SelectSection{Section: sec}, nil
	})(w, r)
}

func (s *Server) handleMidi(w http.ResponseWriter, r *http.Request) {
	_, tune, ok := s.app.Store().Find(mux.Vars(r)["id"])
	if !ok {
		s.writeError(w, http.StatusNotFound, "no such tune")
		return
	}
	score, err := abc.Parse(tune.Notation)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	inst := model.ParseInstrument(r.URL.Query().Get("instrument"))
	if inst == "" {
		inst = s.app.State().Instrument
	}

	mf, err := midi.Export(score, inst.Program())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("notes")); err == nil && n > 0 {
		mf = midi.Incipit(mf, 0, n)
	}
	var buf bytes.Buffer
	if _, err := mf.WriteTo(&buf); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName(tune.Title)+".mid"))
	w.Write(buf.Bytes())
}

func fileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, title)
	if name == "" {
		return "tune"
	}
	return name
}

// ListenAndServe serves until ctx is done.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}
