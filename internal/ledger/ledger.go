// Package ledger coordinates concurrent conversion requests for the same source.
//
// The [Ledger] guarantees at most one conversion runs per fingerprint at any
// time. The first caller to acquire a fingerprint becomes the [Leader] and
// drives the conversion; every concurrent caller becomes a [Follower] and
// waits on the same [Job]. All waiters of a job observe the identical
// terminal result.
//
// Succeeded jobs stay joinable for a short grace period so near-simultaneous
// late joiners resolve without touching the artifact store. Failed jobs are
// removed immediately, a retry must always be possible.
package ledger

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"tapedeck/internal/fingerprint"
)

// Role describes how a caller relates to a conversion job.
type Role int

const (
	// Leader acquired the fingerprint first and must drive the conversion.
	Leader Role = iota
	// Follower joined an existing job and only waits for its result.
	Follower
)

func (r Role) String() string {
	if r == Leader {
		return "leader"
	}
	return "follower"
}

// State is the lifecycle position of a conversion job.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Outcome is the immutable result of a successful conversion, shared verbatim
// with every waiter of the job that produced it.
type Outcome struct {
	Fingerprint fingerprint.Fingerprint
	Location    string // store location, e.g. "<fingerprint>.mp3"
	AudioURL    string // public retrieval URL for the artifact
	SizeBytes   int64
	Title       string
	Artist      string
	Thumbnail   string
	CreatedAt   time.Time
}

// Job represents one in-flight or recently completed conversion attempt.
// Jobs are owned by the Ledger; callers hold references and wait, they never
// resolve a job themselves.
type Job struct {
	fp   fingerprint.Fingerprint
	done chan struct{}

	mu      sync.Mutex
	state   State
	outcome *Outcome
	err     error
}

func newJob(fp fingerprint.Fingerprint) *Job {
	return &Job{fp: fp, done: make(chan struct{}), state: StatePending}
}

// Fingerprint returns the content key this job converts.
func (j *Job) Fingerprint() fingerprint.Fingerprint {
	return j.fp
}

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Start marks the job as running. Called by the Leader immediately before the
// converter subprocess launches; a no-op once the job is terminal.
func (j *Job) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StatePending {
		j.state = StateRunning
	}
}

// Wait blocks until the job reaches a terminal state or ctx is cancelled.
// A cancelled wait abandons only this caller; the job itself keeps running
// and other waiters are unaffected.
func (j *Job) Wait(ctx context.Context) (*Outcome, error) {
	select {
	case <-j.done:
		j.mu.Lock()
		defer j.mu.Unlock()
		return j.outcome, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve transitions the job to a terminal state and wakes every waiter.
// The outcome must be fully populated before done closes so all waiters read
// the same result.
func (j *Job) resolve(outcome *Outcome, err error) {
	j.mu.Lock()
	if j.state == StateSucceeded || j.state == StateFailed {
		j.mu.Unlock()
		return
	}
	j.outcome = outcome
	j.err = err
	if err != nil {
		j.state = StateFailed
	} else {
		j.state = StateSucceeded
	}
	j.mu.Unlock()
	close(j.done)
}

// Ledger is the in-memory registry of conversion jobs keyed by fingerprint.
// It is process-lifetime-only state: after a restart it is reconstructed
// implicitly, callers fall through to the artifact store.
type Ledger struct {
	mu     sync.Mutex
	jobs   map[fingerprint.Fingerprint]*Job
	grace  time.Duration
	logger *log.Logger
}

// New creates a Ledger. Succeeded jobs remain joinable for the grace duration
// after completion; zero or negative grace removes them immediately.
func New(grace time.Duration, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Ledger{
		jobs:   make(map[fingerprint.Fingerprint]*Job),
		grace:  grace,
		logger: logger,
	}
}

// AcquireOrJoin atomically looks up or creates the job for fp.
//
// When no job exists the caller becomes the Leader of a fresh pending job and
// is responsible for driving the conversion and calling [Ledger.Complete].
// Otherwise the caller joins the existing job as a Follower; that includes
// jobs already terminal but still inside their grace period, whose result is
// available without blocking.
func (l *Ledger) AcquireOrJoin(fp fingerprint.Fingerprint) (Role, *Job) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if job, ok := l.jobs[fp]; ok {
		l.logger.Debug("joined existing job", "fingerprint", fp, "state", job.State())
		return Follower, job
	}

	job := newJob(fp)
	l.jobs[fp] = job
	l.logger.Debug("created job", "fingerprint", fp)
	return Leader, job
}

// Complete resolves the job for fp and delivers the result to every waiter
// exactly once. Failed jobs leave the ledger immediately; succeeded jobs are
// evicted after the grace period.
func (l *Ledger) Complete(fp fingerprint.Fingerprint, outcome *Outcome, err error) {
	l.mu.Lock()
	job, ok := l.jobs[fp]
	if !ok {
		l.mu.Unlock()
		return
	}
	if err != nil {
		delete(l.jobs, fp)
	}
	l.mu.Unlock()

	job.resolve(outcome, err)

	if err != nil {
		l.logger.Debug("job failed, evicted", "fingerprint", fp, "err", err)
		return
	}

	if l.grace <= 0 {
		l.evict(fp, job)
		return
	}
	time.AfterFunc(l.grace, func() { l.evict(fp, job) })
}

// evict removes the job from the ledger unless a newer job replaced it.
func (l *Ledger) evict(fp fingerprint.Fingerprint, job *Job) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if current, ok := l.jobs[fp]; ok && current == job {
		delete(l.jobs, fp)
	}
}

// Len reports the number of registered jobs, including terminal jobs still
// inside their grace period.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.jobs)
}
