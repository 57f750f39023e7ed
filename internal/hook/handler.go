// Package hook folds input events into a diary session, flushing it to the
// store after every event, and manages the Claude Code hook registration.
package hook

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/johns/vibe-diary/internal/classify"
	"github.com/johns/vibe-diary/internal/diary"
	"github.com/johns/vibe-diary/internal/event"
	"github.com/johns/vibe-diary/internal/report"
)

// ErrAlreadyFinalized is returned by Finalize after the first call.
var ErrAlreadyFinalized = errors.New("session already finalized")

// FinalizeError is a failure of the terminal write. Run stops on it.
type FinalizeError struct {
	SessionID int64
	Err       error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("finalization failed: %v", e.Err)
}

func (e *FinalizeError) Unwrap() error { return e.Err }

// Store is the persistence the handler writes through.
type Store interface {
	CreateSession(start time.Time) (int64, error)
	SaveIncremental(id int64, sess *diary.Session) error
	Finalize(id int64, sess *diary.Session) error
}

// Journal receives every raw input line.
type Journal interface {
	WriteLine(line string) error
	Close() error
}

// Options configures a Handler. Zero values pick stdout, stderr, a
// discarding logger and time.Now.
type Options struct {
	DryRun  bool
	Out     io.Writer
	Errs    io.Writer
	Log     *log.Logger
	Journal Journal
	Now     func() time.Time
}

// Handler owns the session of one invocation.
type Handler struct {
	store     Store
	opts      Options
	sess      *diary.Session
	finalized bool
}

// dryRunID is the session handle reported when nothing is persisted.
const dryRunID = 1

// New returns a handler whose session starts now. store may be nil in
// dry-run mode.
func New(store Store, opts Options) *Handler {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Errs == nil {
		opts.Errs = os.Stderr
	}
	if opts.Log == nil {
		opts.Log = log.New(io.Discard, "", 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		store: store,
		opts:  opts,
		sess:  diary.New(opts.Now()),
	}
}

// Session returns the accumulated session.
func (h *Handler) Session() *diary.Session {
	return h.sess
}

// Finalized reports whether Finalize has run.
func (h *Handler) Finalized() bool {
	return h.finalized
}

// Run processes every line of r in order, then finalizes unless a session
// end event already did. Per-event failures are printed to Errs and the run
// continues; a finalization failure stops it.
func (h *Handler) Run(r io.Reader) error {
	if h.opts.Journal != nil {
		defer func() {
			if err := h.opts.Journal.Close(); err != nil {
				fmt.Fprintf(h.opts.Errs, "vd: close journal: %v\n", err)
			}
		}()
	}

	sc := event.NewScanner(r)
	for sc.Scan() {
		line := sc.Line()

		if h.opts.Journal != nil {
			if err := h.opts.Journal.WriteLine(line); err != nil {
				fmt.Fprintf(h.opts.Errs, "vd: %v\n", err)
			}
		}

		ev, err := event.Normalize(line, h.opts.Now())
		if err != nil {
			h.opts.Log.Printf("failed to parse input (%v), recording as text: %s", err, line)
		}

		if err := h.Process(ev); err != nil {
			var fe *FinalizeError
			if errors.As(err, &fe) {
				return err
			}
			fmt.Fprintf(h.opts.Errs, "vd: error processing event: %v\n", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if h.finalized {
		return nil
	}
	return h.Finalize()
}

// Process folds one event into the session and flushes it. Tool counts and
// duration are accumulated for every kind before the per-kind step.
func (h *Handler) Process(ev event.Event) error {
	h.opts.Log.Printf("processing event: %s", ev.Type)

	for _, tc := range ev.ToolCalls {
		h.sess.CountTool(tc.ToolName)
	}
	if ev.DurationMS != nil {
		h.sess.AddDuration(*ev.DurationMS)
	}

	switch ev.Kind() {
	case event.SessionStart, event.UserPrompt, event.Message:
		h.foldPrompt(ev)
	case event.ToolCall, event.ToolResult:
		h.foldToolCalls(ev)
	case event.Error:
		if ev.Error != nil {
			h.sess.Issues = append(h.sess.Issues, classify.Issue(*ev.Error))
		}
	case event.SessionEnd:
		if h.finalized {
			h.opts.Log.Printf("ignoring repeated session end")
			return nil
		}
		return h.Finalize()
	default:
		if ev.AssistantResponse != nil {
			if acc, ok := classify.Response(*ev.AssistantResponse, ev.DurationMS); ok {
				h.sess.Accomplishments = append(h.sess.Accomplishments, acc)
			}
		}
	}

	return h.save()
}

func (h *Handler) foldPrompt(ev event.Event) {
	prompt, ok := ev.Prompt()
	if !ok {
		return
	}
	if obj := classify.Objective(prompt); obj != "" {
		h.sess.Objectives = append(h.sess.Objectives, obj)
	}
	if acc, ok := classify.Prompt(prompt, ev.DurationMS); ok {
		h.sess.Accomplishments = append(h.sess.Accomplishments, acc)
	}
}

func (h *Handler) foldToolCalls(ev event.Event) {
	for _, tc := range ev.ToolCalls {
		acc, path := classify.ToolCall(tc)
		if path != "" {
			h.sess.FilesModified = append(h.sess.FilesModified, path)
		}
		h.sess.Accomplishments = append(h.sess.Accomplishments, acc)
	}
}

// sessionID returns the persistent handle, creating the session row on
// first use.
func (h *Handler) sessionID() (int64, error) {
	if h.sess.ID != 0 {
		return h.sess.ID, nil
	}
	if h.opts.DryRun {
		h.sess.ID = dryRunID
		return h.sess.ID, nil
	}
	id, err := h.store.CreateSession(h.sess.StartTime)
	if err != nil {
		return 0, err
	}
	h.sess.ID = id
	h.opts.Log.Printf("created session %d", id)
	return id, nil
}

func (h *Handler) save() error {
	id, err := h.sessionID()
	if err != nil {
		return err
	}
	if h.opts.DryRun {
		return nil
	}
	return h.store.SaveIncremental(id, h.sess)
}

// Finalize stamps the end time and performs the terminal write, or prints
// the report in dry-run mode. It runs at most once; later calls return
// ErrAlreadyFinalized without touching the store, since the terminal write
// is not idempotent. A failed attempt is not retried.
func (h *Handler) Finalize() error {
	if h.finalized {
		return ErrAlreadyFinalized
	}
	h.finalized = true
	now := h.opts.Now()
	h.sess.End(now)

	if h.opts.DryRun {
		if _, err := h.sessionID(); err != nil {
			return &FinalizeError{Err: err}
		}
		if err := report.WriteDryRun(h.opts.Out, h.sess, now); err != nil {
			return &FinalizeError{SessionID: h.sess.ID, Err: err}
		}
		return nil
	}

	id, err := h.sessionID()
	if err != nil {
		return &FinalizeError{Err: err}
	}
	if err := h.store.Finalize(id, h.sess); err != nil {
		return &FinalizeError{SessionID: id, Err: err}
	}
	h.opts.Log.Printf("finalized session %d", id)
	return nil
}
