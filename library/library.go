// Package library holds the tune book: an ordered, append-only list of tunes.
package library

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/google/uuid"
	"github.com/jsphweid/ceol/constants"
	"github.com/jsphweid/ceol/model"
	"github.com/jsphweid/ceol/source"
)

// Entry is a search hit. Index is the tune's position in the full list.
type Entry struct {
	Index int        `json:"index"`
	Tune  model.Tune `json:"tune"`
}

type Store struct {
	mu     sync.RWMutex
	tunes  []model.Tune
	logger *log.Logger
	newId  func() string
}

func New(logger *log.Logger) *Store {
	return &Store{logger: logger, newId: uuid.NewString}
}

// Load replaces the tunes with the source's document. A failed fetch is
// logged and leaves the store empty.
func (s *Store) Load(ctx context.Context, src source.Source) error {
	doc, err := src.Fetch(ctx)
	if err != nil {
		err = fault.Wrap(err,
			fmsg.WithDesc("load tunes from "+src.String(), "The tune book could not be loaded."),
			ftag.With(model.KindDataLoad))
		s.logger.Printf("%+v", err)
		s.mu.Lock()
		s.tunes = nil
		s.mu.Unlock()
		return err
	}
	doc = doc.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tunes = make([]model.Tune, 0, len(doc.Tunes))
	for _, t := range doc.Tunes {
		if t.Id == "" {
			t.Id = s.newId()
		}
		s.tunes = append(s.tunes, t)
	}
	return nil
}

// Add appends a tune and reports whether it did. Empty notation is ignored.
func (s *Store) Add(title, tuneType, notation string) (model.Tune, bool) {
	notation = strings.TrimSpace(notation)
	if notation == "" {
		return model.Tune{}, false
	}
	t := model.Tune{
		Title:    strings.TrimSpace(title),
		Type:     strings.TrimSpace(tuneType),
		Notation: notation,
	}
	if t.Title == "" {
		t.Title = constants.DefaultTitle
	}
	if t.Type == "" {
		t.Type = constants.DefaultType
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t.Id = s.newId()
	s.tunes = append(s.tunes, t)
	return t, true
}

// Search keeps the tunes whose title and type contain query, ignoring case.
func (s *Store) Search(query string) []Entry {
	q := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := []Entry{}
	for i, t := range s.tunes {
		if q == "" || strings.Contains(strings.ToLower(t.Title+" "+t.Type), q) {
			res = append(res, Entry{Index: i, Tune: t})
		}
	}
	return res
}

func (s *Store) Get(i int) (model.Tune, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.tunes) {
		return model.Tune{}, false
	}
	return s.tunes[i], true
}

// Find looks a tune up by id.
func (s *Store) Find(id string) (int, model.Tune, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, t := range s.tunes {
		if t.Id == id {
			return i, t, true
		}
	}
	return -1, model.Tune{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tunes)
}

func (s *Store) All() []model.Tune {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Tune{}, s.tunes...)
}
