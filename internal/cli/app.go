// Package cli is the terminal front end of the homesite blog.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"homesite/internal/site"
)

type App struct {
	ctrl   *site.Controller
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctrl *site.Controller, in io.Reader, out io.Writer) *App {
	return &App{ctrl: ctrl, reader: bufio.NewReader(in), out: out}
}

// Run mounts the site, serves commands until exit or end of input, and
// unmounts.
func (a *App) Run(ctx context.Context) {
	if err := a.ctrl.Mount(ctx); err != nil {
		alert(a.out, err.Error())
	}
	defer a.ctrl.Unmount()

	a.show()
	runREPL(ctx, a)
}

func (a *App) show() {
	renderSafely(a.out, a.ctrl.View())
}

func (a *App) report(err error) {
	if err != nil {
		alert(a.out, err.Error())
	}
}

func (a *App) SelectTab(ctx context.Context, name string) error {
	tab, ok := site.ParseTab(name)
	if !ok {
		return fmt.Errorf("unknown tab %q", name)
	}
	return a.ctrl.SelectTab(ctx, tab)
}

func (a *App) Filter(tag string) {
	a.ctrl.SetFilter(tag)
}

func (a *App) Open(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	return a.ctrl.OpenPost(ctx, id)
}

func (a *App) Back() {
	a.ctrl.ClosePost()
}

func (a *App) NewPost(ctx context.Context) error {
	if err := a.ctrl.StartNewPost(); err != nil {
		return err
	}
	return a.writeAndSave(ctx)
}

func (a *App) EditPost(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if err := a.ctrl.StartEdit(id); err != nil {
		return err
	}
	return a.writeAndSave(ctx)
}

func (a *App) writeAndSave(ctx context.Context) error {
	if err := a.WriteDraft(); err != nil {
		return err
	}
	return a.Save(ctx)
}

// WriteDraft walks through the editor fields. An empty answer keeps the
// current value.
func (a *App) WriteDraft() error {
	f := a.ctrl.View()
	if f.Editor == nil {
		return site.ErrNotEditing
	}
	d := f.Editor.Draft

	var err error
	if d.Title, err = readLineDefault(a.reader, a.out, "Title", d.Title); err != nil {
		return err
	}
	if d.Date, err = readLineDefault(a.reader, a.out, "Date (YYYY-MM-DD)", d.Date); err != nil {
		return err
	}
	if d.Tags, err = readLineDefault(a.reader, a.out, "Tags (comma separated)", d.Tags); err != nil {
		return err
	}
	content, err := readMultiline(a.reader, a.out, "Content (markdown, empty keeps the current text)")
	if err != nil {
		return err
	}
	if content != "" {
		d.Content = content
	}
	return a.ctrl.UpdateDraft(d)
}

func (a *App) Save(ctx context.Context) error {
	creating := false
	if ed := a.ctrl.View().Editor; ed != nil {
		creating = ed.Creating
	}
	if _, err := a.ctrl.SavePost(ctx); err != nil {
		return err
	}
	if creating {
		notice(a.out, "Post published!")
	} else {
		notice(a.out, "Changes saved!")
	}
	return nil
}

func (a *App) Cancel() {
	a.ctrl.CancelEdit()
}

func (a *App) Delete(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	deleted, err := a.ctrl.DeletePost(ctx, id, confirmer(a.reader, a.out))
	if err != nil {
		return err
	}
	if deleted {
		notice(a.out, "Post deleted.")
	}
	return nil
}

// Sign asks for the identity used on comments.
func (a *App) Sign() error {
	ident := a.ctrl.Identity()

	var err error
	if ident.Name, err = readLineDefault(a.reader, a.out, "Name", ident.Name); err != nil {
		return err
	}
	if ident.Email, err = readLineDefault(a.reader, a.out, "Email (not shown)", ident.Email); err != nil {
		return err
	}
	if ident.Website, err = readLineDefault(a.reader, a.out, "Website (optional)", ident.Website); err != nil {
		return err
	}
	def := "n"
	if ident.Remember {
		def = "y"
	}
	answer, err := readLineDefault(a.reader, a.out, "Remember me? (y/n)", def)
	if err != nil {
		return err
	}
	ident.Remember = answer == "y" || answer == "yes"

	a.ctrl.SetIdentity(ident)
	return nil
}

func (a *App) Message(ctx context.Context) error {
	if a.ctrl.Tab() != site.TabGuestbook {
		return fmt.Errorf("open the guestbook first")
	}
	text, err := readMultiline(a.reader, a.out, "Message (markdown)")
	if err != nil {
		return err
	}
	if text != "" {
		a.ctrl.SetGuestbookContent(text)
	}
	return a.ctrl.SubmitGuestbook(ctx)
}

func (a *App) Comment(ctx context.Context) error {
	if _, ok := a.ctrl.View().View.(site.BlogDetailView); !ok {
		return site.ErrNoPostOpen
	}
	text, err := readMultiline(a.reader, a.out, "Comment (markdown)")
	if err != nil {
		return err
	}
	if text != "" {
		a.ctrl.SetCommentContent(text)
	}
	return a.ctrl.SubmitPostComment(ctx)
}

func (a *App) Admin(ctx context.Context) error {
	pw, err := readSecret(a.reader, a.out)
	if err != nil {
		return err
	}
	if err := a.ctrl.UnlockAdmin(ctx, pw); err != nil {
		return err
	}
	notice(a.out, "Admin mode unlocked.")
	return nil
}

func (a *App) Lock(ctx context.Context) {
	a.ctrl.LockAdmin(ctx)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("expected a post number, got %q", arg)
	}
	return id, nil
}
