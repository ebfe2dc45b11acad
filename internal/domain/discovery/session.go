package discovery

import (
	"context"
	"errors"
	"strings"
	"sync"

	apperrors "github.com/yanqian/synergy-circle/pkg/errors"
)

// ViewState is the presentation state of one browser session.
type ViewState string

const (
	StateIdle    ViewState = "idle"
	StateLoading ViewState = "loading"
	StateSuccess ViewState = "success"
	StateFailure ViewState = "failure"
)

// ErrBusy is returned when a submit arrives while an analysis is in flight.
var ErrBusy = errors.New("an analysis is already in progress")

// Analyzer is the part of Service a Session drives.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (AnalysisResult, error)
}

// View is a snapshot of a Session.
type View struct {
	State  ViewState
	Query  string
	Result *AnalysisResult
	Error  string
}

// Session serializes queries for one user: at most one analysis runs at a time
// and the view only ever shows the outcome of the latest query.
type Session struct {
	mu       sync.Mutex
	analyzer Analyzer
	view     View
}

// NewSession returns an Idle session.
func NewSession(analyzer Analyzer) *Session {
	return &Session{analyzer: analyzer, view: View{State: StateIdle}}
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Submit runs an analysis for profileURL and blocks until it settles.
// A blank url leaves the view untouched. A submit while Loading returns ErrBusy.
func (s *Session) Submit(ctx context.Context, profileURL string) (View, error) {
	query, view, err := s.begin(profileURL)
	if err != nil || query == "" {
		return view, err
	}
	result, err := s.analyzer.Analyze(ctx, Request{ProfileURL: query})
	return s.settle(query, result, err), nil
}

// Start moves the session to Loading and runs the analysis in the background.
// The analysis keeps ctx's values but not its cancellation, so a caller that
// goes away does not fail the query. Blank and busy submits behave as in Submit.
func (s *Session) Start(ctx context.Context, profileURL string) (View, error) {
	query, view, err := s.begin(profileURL)
	if err != nil || query == "" {
		return view, err
	}
	analyzeCtx := context.WithoutCancel(ctx)
	go func() {
		result, err := s.analyzer.Analyze(analyzeCtx, Request{ProfileURL: query})
		s.settle(query, result, err)
	}()
	return view, nil
}

// begin claims the session for query. An empty query means nothing was started.
func (s *Session) begin(profileURL string) (string, View, error) {
	query := strings.TrimSpace(profileURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if query == "" {
		return "", s.view, nil
	}
	if s.view.State == StateLoading {
		return "", s.view, ErrBusy
	}
	s.view = View{State: StateLoading, Query: query}
	return query, s.view, nil
}

func (s *Session) settle(query string, result AnalysisResult, err error) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		msg := apperrors.Message(err)
		if msg == "" {
			msg = "analysis failed"
		}
		s.view = View{State: StateFailure, Query: query, Error: msg}
		return s.view
	}
	s.view = View{State: StateSuccess, Query: query, Result: &result}
	return s.view
}

// Reset returns a settled session to Idle. It is ignored while Loading.
func (s *Session) Reset() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.State != StateLoading {
		s.view = View{State: StateIdle}
	}
	return s.view
}
