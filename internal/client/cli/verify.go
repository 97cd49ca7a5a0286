package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/compliancebinder/internal/client/api"
	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

// verifyPDF is the smallest body the default content-type allowlist accepts.
var verifyPDF = []byte("%PDF-1.4\n% binderctl verify\n%%EOF\n")

// ErrVerifyFailed is returned when the server does not behave as expected.
var ErrVerifyFailed = errors.New("verification failed")

type verifier struct {
	app    *App
	domain string
	failed int
}

func (v *verifier) check(step string, err error) bool {
	if err != nil {
		v.failed++
		fmt.Fprintf(v.app.out, "FAIL  %s: %v\n", step, err)
		return false
	}
	fmt.Fprintf(v.app.out, "ok    %s\n", step)
	return true
}

// expectStatus turns a wanted API error into success and anything else
// into a failure.
func expectStatus(err error, want int) error {
	if err == nil {
		return fmt.Errorf("expected HTTP %d, request succeeded", want)
	}
	if got := api.StatusOf(err); got != want {
		return fmt.Errorf("expected HTTP %d, got: %w", want, err)
	}
	return nil
}

func (v *verifier) newUser(ctx context.Context, label string) (*api.Client, string, string, error) {
	suffix, err := common.MakeRandHexString(6)
	if err != nil {
		return nil, "", "", err
	}
	email := fmt.Sprintf("verify-%s-%s@%s", label, suffix, v.domain)
	password := "pw-" + suffix

	c := api.New(v.app.config.ServerURL, v.app.config.Timeout)
	if err := c.Register(ctx, email, password); err != nil {
		return nil, "", "", err
	}
	return c, email, password, nil
}

func (a *App) verifyCommand() *Command {
	var domain string
	return &Command{
		Name:    "verify",
		Summary: "Run an end-to-end check against the server with throwaway accounts",
		Usage:   "binderctl verify [--domain example.com]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			fs.StringVar(&domain, "domain", "example.com", "email domain for the throwaway accounts")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			v := &verifier{app: a, domain: domain}
			v.run(ctx)
			if v.failed > 0 {
				return fmt.Errorf("%w: %d step(s)", ErrVerifyFailed, v.failed)
			}
			fmt.Fprintln(a.out, "all checks passed")
			return nil
		},
	}
}

// run walks the register, login, binder, task, document and report flow
// for one identity and checks a second identity cannot see any of it.
// Steps that other steps depend on stop the run when they fail.
func (v *verifier) run(ctx context.Context) {
	probe := api.New(v.app.config.ServerURL, v.app.config.Timeout)
	h, err := probe.Health(ctx)
	if err == nil && h.Status == "unhealthy" {
		err = fmt.Errorf("server reports %s (database %s, storage %s)", h.Status, h.Database, h.Storage)
	}
	if !v.check("server reachable", err) {
		return
	}

	owner, email, password, err := v.newUser(ctx, "owner")
	if !v.check("register owner", err) {
		return
	}
	v.check("duplicate registration rejected", expectStatus(owner.Register(ctx, email, password), http.StatusConflict))

	_, err = owner.Login(ctx, email, password+"-wrong")
	v.check("wrong password rejected", expectStatus(err, http.StatusUnauthorized))

	_, err = owner.Login(ctx, email, password)
	if !v.check("login owner", err) {
		return
	}

	binder, err := owner.CreateBinder(ctx, "Verify "+time.Now().UTC().Format(time.DateTime), "")
	if !v.check("create binder", err) {
		return
	}

	binders, err := owner.ListBinders(ctx)
	if err == nil && !slices.ContainsFunc(binders, func(b api.Binder) bool { return b.ID == binder.ID }) {
		err = errors.New("new binder missing from list")
	}
	v.check("list binders", err)

	today := time.Now().UTC()
	later, err := owner.CreateTask(ctx, binder.ID, api.NewTask{Title: "verify later", DueDate: today.AddDate(0, 0, 30).Format(time.DateOnly)})
	if !v.check("create task with due date", err) {
		return
	}
	_, err = owner.CreateTask(ctx, binder.ID, api.NewTask{Title: "verify sooner", DueDate: today.AddDate(0, 0, 7).Format(time.DateOnly)})
	v.check("create earlier task", err)
	_, err = owner.CreateTask(ctx, binder.ID, api.NewTask{Title: "verify undated"})
	v.check("create undated task", err)

	for i := 1; i <= 2; i++ {
		task, err := owner.MarkDone(ctx, later.ID)
		if err == nil && task.Status != "done" {
			err = fmt.Errorf("status %q", task.Status)
		}
		v.check(fmt.Sprintf("mark done (%d)", i), err)
	}

	doc, err := owner.Upload(ctx, binder.ID, "../../verify.pdf", "application/pdf", "binderctl verify", bytes.NewReader(verifyPDF))
	if err == nil && strings.ContainsAny(doc.OriginalName, `/\`) {
		err = fmt.Errorf("stored name %q keeps a path", doc.OriginalName)
	}
	if !v.check("upload document", err) {
		return
	}

	var got bytes.Buffer
	_, err = owner.Download(ctx, doc.ID, &got)
	if err == nil && !bytes.Equal(got.Bytes(), verifyPDF) {
		err = errors.New("downloaded body differs")
	}
	v.check("download document", err)

	html, err := owner.Report(ctx, binder.ID)
	if err == nil {
		sooner, undated := strings.Index(html, "verify sooner"), strings.Index(html, "verify undated")
		if sooner < 0 || undated < 0 || sooner > undated {
			err = errors.New("tasks missing or out of due-date order")
		}
	}
	v.check("report", err)

	intruder, iEmail, iPassword, err := v.newUser(ctx, "other")
	if err == nil {
		_, err = intruder.Login(ctx, iEmail, iPassword)
	}
	if !v.check("register second identity", err) {
		return
	}

	_, err = intruder.GetBinder(ctx, binder.ID)
	v.check("foreign binder hidden", expectStatus(err, http.StatusNotFound))
	_, err = intruder.ListTasks(ctx, binder.ID)
	v.check("foreign tasks hidden", expectStatus(err, http.StatusNotFound))
	_, err = intruder.MarkDone(ctx, later.ID)
	v.check("foreign task untouchable", expectStatus(err, http.StatusNotFound))
	_, err = intruder.Download(ctx, doc.ID, &bytes.Buffer{})
	v.check("foreign document hidden", expectStatus(err, http.StatusNotFound))
	_, err = intruder.Report(ctx, binder.ID)
	v.check("foreign report hidden", expectStatus(err, http.StatusNotFound))
}
