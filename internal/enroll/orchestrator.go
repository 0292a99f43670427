// Package enroll runs the submit flow of the registration form: create the
// account, sign it in, remember the session and point at the next step.
package enroll

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/signup/internal/api"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/pubsub"
	"github.com/zjrosen/signup/internal/registration"
	"github.com/zjrosen/signup/internal/session"
	"github.com/zjrosen/signup/internal/tracing"
)

// Step names a stage of Submit.
type Step string

const (
	StepCreateAccount Step = "create_account"
	StepSignIn        Step = "sign_in"
	StepSaveSession   Step = "save_session"
	StepDone          Step = "done"
)

// Label is the text shown next to the spinner while the step runs.
func (s Step) Label() string {
	switch s {
	case StepCreateAccount:
		return "Creating your account"
	case StepSignIn:
		return "Signing you in"
	case StepSaveSession:
		return "Saving your session"
	case StepDone:
		return "Done"
	}
	return string(s)
}

// Progress is published when Submit enters a step or fails in it.
type Progress struct {
	Step Step
	Err  error
}

// Result is the outcome of a successful Submit.
type Result struct {
	Session session.Session
	NextURL string
}

// StepError is a failure attributed to the step it happened in.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// MsgSignInFailed is shown when the account exists but the sign-in did not work.
const MsgSignInFailed = "Your account was created, but we could not sign you in. Please sign in to continue."

// UserMessage returns the text to show for a Submit error.
func UserMessage(err error) string {
	var stepErr *StepError
	if errors.As(err, &stepErr) && stepErr.Step == StepSignIn {
		return MsgSignInFailed
	}
	return api.Message(err)
}

// AccountCreator creates accounts.
type AccountCreator interface {
	CreateAccount(ctx context.Context, req api.CreateAccountRequest) (api.CreateAccountResponse, error)
}

// Authenticator signs credentials in.
type Authenticator interface {
	SignIn(ctx context.Context, creds session.Credentials) (session.Session, error)
	NextURL() string
}

// Orchestrator sequences the submit flow.
type Orchestrator struct {
	accounts AccountCreator
	auth     Authenticator
	store    session.Store
	broker   *pubsub.Broker[Progress]
	tracer   trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStore persists sessions after sign-in.
func WithStore(s session.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithTracer records an enroll.submit span around each Submit.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// New returns an orchestrator. Progress is published on its own broker.
func New(accounts AccountCreator, auth Authenticator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		accounts: accounts,
		auth:     auth,
		broker:   pubsub.NewBroker[Progress](),
		tracer:   tracing.Noop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Broker exposes step progress.
func (o *Orchestrator) Broker() *pubsub.Broker[Progress] {
	return o.broker
}

// Close releases progress subscribers.
func (o *Orchestrator) Close() {
	o.broker.Close()
}

// Submit creates acct, signs it in with the same normalized email and
// password, and saves the session. A failure to save is logged but does not
// fail the submit.
func (o *Orchestrator) Submit(ctx context.Context, acct registration.Account) (res Result, err error) {
	ctx, span := tracing.Start(ctx, o.tracer, tracing.SpanSubmit)
	defer func() { tracing.End(span, err) }()

	step := func(s Step) {
		span.SetAttributes(attribute.String(tracing.AttrStep, string(s)))
		o.broker.Publish(pubsub.ProgressEvent, Progress{Step: s})
	}
	fail := func(s Step, cause error) error {
		stepErr := &StepError{Step: s, Err: cause}
		log.ErrorErr(log.CatForm, "Submit failed", cause, "step", string(s), "username", acct.Username)
		o.broker.Publish(pubsub.ProgressEvent, Progress{Step: s, Err: stepErr})
		return stepErr
	}

	step(StepCreateAccount)
	if _, err := o.accounts.CreateAccount(ctx, acct); err != nil {
		return Result{}, fail(StepCreateAccount, err)
	}

	step(StepSignIn)
	sess, err := o.auth.SignIn(ctx, session.Credentials{Email: acct.Email, Password: acct.Password})
	if err != nil {
		return Result{}, fail(StepSignIn, err)
	}

	if o.store != nil {
		step(StepSaveSession)
		if err := o.store.Save(ctx, sess); err != nil {
			log.ErrorErr(log.CatSession, "Could not save session", err, "email", sess.Email)
		}
	}

	res = Result{Session: sess, NextURL: o.auth.NextURL()}
	step(StepDone)
	log.Info(log.CatForm, "Registration complete", "username", acct.Username, "next", res.NextURL)
	return res, nil
}
