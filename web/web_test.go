package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jsphweid/ceol/app"
	"github.com/jsphweid/ceol/audio"
	"github.com/jsphweid/ceol/audio/audiotest"
	"github.com/jsphweid/ceol/constants"
	"github.com/jsphweid/ceol/engine"
	"github.com/jsphweid/ceol/engine/enginetest"
	"github.com/jsphweid/ceol/library"
	"github.com/jsphweid/ceol/midi"
	"github.com/jsphweid/ceol/model"
	"github.com/jsphweid/ceol/playback"
	"github.com/jsphweid/ceol/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tunes []model.Tune

func (t tunes) Fetch(ctx context.Context) (model.TuneDocument, error) {
	return model.TuneDocument{Tunes: t}, nil
}

func (t tunes) String() string { return "test" }

func newServer(t *testing.T) http.Handler {
	t.Helper()
	return newServerWithDelay(t, 0)
}

func newServerWithDelay(t *testing.T, previewDelay time.Duration) http.Handler {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	rec := view.NewRecorder()
	a := app.New(app.Config{
		Store: library.New(logger),
		Source: tunes{
			{Id: "kesh", Title: "The Kesh", Type: "Jig", Notation: "X:1\nT:The Kesh\nM:6/8\nL:1/8\nK:G\n|:GAG GAB|ABA ABd:|"},
			{Id: "maggie", Title: "Drowsy Maggie", Type: "Reel", Notation: "X:2\nT:Drowsy Maggie\nM:4/4\nL:1/8\nK:Edor\nE2BE dEBE|"},
			{Id: "broken", Title: "Broken", Type: "Reel", Notation: "K:G\nGAB @"},
		},
		Loader: engine.NewLoader(func(context.Context) (engine.Engine, error) {
			return engine.NewABC(&enginetest.Renderer{}), nil
		}),
		Audio: func() (audio.Context, error) {
			actx := audiotest.NewContext(false)
			actx.Hold = true
			return actx, nil
		},
		Surface:      rec,
		Logger:       logger,
		PreviewDelay: previewDelay,
	})
	require.NoError(t, a.Start(context.Background()))
	return NewServer(a, rec, logger).Handler()
}

func request(t *testing.T, h http.Handler, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

func viewOf(t *testing.T, res *http.Response) ViewResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var v ViewResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func TestIndexPage(t *testing.T) {
	res := request(t, newServer(t), http.MethodGet, "/", nil)
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "/api/view")
}

func TestViewAndPaging(t *testing.T) {
	h := newServer(t)

	assert := assert.New(t)
	v := viewOf(t, request(t, h, http.MethodGet, "/api/view", nil))
	assert.Equal("1 / 3", v.View.Pager.Position)
	assert.Equal("The Kesh", v.View.Score.Title)
	assert.Equal([]string{"|: GAG GAB | ABA ABd :|"}, v.View.Score.Lines)

	request(t, h, http.MethodPost, "/api/next", nil)
	v = viewOf(t, request(t, h, http.MethodPost, "/api/next", nil))
	assert.Equal("3 / 3", v.View.Pager.Position)
	assert.Equal("ABC parse error.", v.View.Score.Notice)

	v = viewOf(t, request(t, h, http.MethodPost, "/api/next", nil))
	assert.Equal(2, v.State.Index)

	v = viewOf(t, request(t, h, http.MethodPost, "/api/prev", nil))
	assert.Equal("Drowsy Maggie", v.View.Pager.Title)
}

func TestPlayAndStop(t *testing.T) {
	h := newServer(t)

	v := viewOf(t, request(t, h, http.MethodPost, "/api/play", nil))
	assert.Equal(t, playback.Playing, v.State.Playback)
	assert.True(t, v.View.StopEnabled)

	v = viewOf(t, request(t, h, http.MethodPost, "/api/stop", nil))
	assert.Equal(t, playback.Idle, v.State.Playback)
	assert.True(t, v.View.PlayEnabled)
	assert.False(t, v.View.StopEnabled)
}

func TestAddSearchAndOpen(t *testing.T) {
	h := newServer(t)
	assert := assert.New(t)

	res := request(t, h, http.MethodPost, "/api/tunes", model.AddTuneRequestBody{Title: "x", Notation: "  "})
	assert.Equal(http.StatusBadRequest, res.StatusCode)
	var e model.ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&e))
	assert.Equal("notation is empty", e.Error)

	v := viewOf(t, request(t, h, http.MethodPost, "/api/tunes", model.AddTuneRequestBody{
		Title: "Cooley's", Type: "Reel", Notation: "T:Cooley's\nL:1/8\nK:Edor\nEBBA B2EB|",
	}))
	assert.Equal("4 / 4", v.View.Pager.Position)
	assert.Equal(app.Book, v.View.Section)

	v = viewOf(t, request(t, h, http.MethodPost, "/api/search", model.SearchRequestBody{Query: "reel"}))
	require.Len(t, v.View.Library, 3)
	assert.Equal(1, v.View.Library[0].Index)

	v = viewOf(t, request(t, h, http.MethodPost, "/api/open/1", nil))
	assert.Equal("Drowsy Maggie", v.View.Score.Title)

	res = request(t, h, http.MethodPost, "/api/open/one", nil)
	assert.Equal(http.StatusBadRequest, res.StatusCode)

	res = request(t, h, http.MethodGet, "/api/tunes?q=jig", nil)
	var entries []library.Entry
	require.NoError(t, json.NewDecoder(res.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal("kesh", entries[0].Tune.Id)
}

func TestInstrumentSectionDocumentPreview(t *testing.T) {
	h := newServer(t)
	assert := assert.New(t)

	v := viewOf(t, request(t, h, http.MethodPut, "/api/instrument", model.InstrumentRequestBody{Instrument: "Accordion"}))
	assert.Equal(model.Accordion, v.View.Instrument)

	v = viewOf(t, request(t, h, http.MethodPost, "/api/section", model.SectionRequestBody{Section: "pdf"}))
	assert.Equal(app.PDF, v.View.Section)
	res := request(t, h, http.MethodPost, "/api/section", model.SectionRequestBody{Section: "attic"})
	assert.Equal(http.StatusBadRequest, res.StatusCode)

	v = viewOf(t, request(t, h, http.MethodPost, "/api/document", model.DocumentRequestBody{URL: " https://example.com/tunes.pdf "}))
	assert.Equal("https://example.com/tunes.pdf", v.View.Document)

	v = viewOf(t, request(t, h, http.MethodPost, "/api/preview", model.PreviewRequestBody{Notation: "T:Draft\nK:D\nDFA|"}))
	assert.Equal("Draft", v.View.Preview.Title)
	v = viewOf(t, request(t, h, http.MethodPost, "/api/preview", model.PreviewRequestBody{Notation: ""}))
	assert.Equal("Preview", v.View.Preview.Title)

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(http.StatusBadRequest, w.Code)
}

func TestPreviewWithDebounce(t *testing.T) {
	h := newServerWithDelay(t, constants.PreviewDebounce)
	assert := assert.New(t)

	v := viewOf(t, request(t, h, http.MethodPost, "/api/preview", model.PreviewRequestBody{Notation: "T:Draft\nK:D\nDFA|"}))
	assert.Equal("Draft", v.View.Preview.Title)
	v = viewOf(t, request(t, h, http.MethodPost, "/api/preview", model.PreviewRequestBody{Notation: "T:Drafts\nK:D\nDFA|"}))
	assert.Equal("Drafts", v.View.Preview.Title)

	v = viewOf(t, request(t, h, http.MethodPost, "/api/preview", model.PreviewRequestBody{Notation: "X:1\nL:1/2000\nK:C\n[CE]|"}))
	assert.Equal(constants.ParseErrorNotice, v.View.Preview.Notice)

	time.Sleep(2 * constants.PreviewDebounce)
	v = viewOf(t, request(t, h, http.MethodGet, "/api/view", nil))
	assert.Equal(constants.ParseErrorNotice, v.View.Preview.Notice)
}

func TestMidiExport(t *testing.T) {
	h := newServer(t)

	res := request(t, h, http.MethodGet, "/api/tunes/kesh/midi?instrument=mandolin", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "audio/midi", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "The-Kesh.mid")

	s, err := midi.ReadMidi(res.Body)
	require.NoError(t, err)
	sum, err := midi.Summarize(s)
	require.NoError(t, err)
	assert.Equal(t, 25, sum.Program)
	assert.Equal(t, 24, sum.Notes)

	assert.Equal(t, http.StatusNotFound, request(t, h, http.MethodGet, "/api/tunes/nope/midi", nil).StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, request(t, h, http.MethodGet, "/api/tunes/broken/midi", nil).StatusCode)

	res = request(t, h, http.MethodGet, "/api/tunes/kesh/midi?notes=4", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	s, err = midi.ReadMidi(res.Body)
	require.NoError(t, err)
	sum, err = midi.Summarize(s)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Notes)
}

func TestCORS(t *testing.T) {
	h := newServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/view", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
